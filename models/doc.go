// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LoginRequest: username, password
  - ActivateTokenRequest: code, voter_id, station_level
  - ScanTokenRequest: code, station_level
  - SubmitVoteRequest: code, party_id, abstain
  - ExpireCheckRequest: timeout_minutes override
  - SetElectionStatusRequest: status, open_time, close_time
  - GenerateTokensRequest: count, station_level
  - CancelBatchRequest: batch_id
  - ImportVotersRequest: voter roster rows
  - PartyRequest: name, number

# Response Types

Types for JSON responses:

  - LoginResponse: token, operator
  - ActivateTokenResponse: code, status, warning
  - ScanTokenResponse: code, status, station_level
  - SubmitVoteResponse: message
  - ExpireCheckResponse: expired_count, absent_count
  - ElectionStatusResponse: effective and raw status, window bounds
  - GenerateTokensResponse: batch_id, codes
  - ResultsResponse / StatsResponse: tallies and counters
  - ErrorResponse: error, message, reason

# Domain Types

Internal data structures:

  - Voter: roster entry with level, room, and vote status
  - BallotToken: one-time ballot code and its lifecycle state
  - Vote: anonymous ballot record (never references a voter)
  - Party: ballot-listed party with its number
  - Operator: poll-worker or admin account
  - PrintLog: audit record for a printed token batch

# Constants

Token lifecycle:

	TokenInactive  = "inactive"
	TokenActivated = "activated"
	TokenVoting    = "voting"
	TokenUsed      = "used"
	TokenExpired   = "expired"

Voter status:

	VoterVoted  = "voted"
	VoterAbsent = "absent"

Election status:

	ElectionOpen      = "open"
	ElectionClosed    = "closed"
	ElectionScheduled = "scheduled"

Operator roles:

	RoleAdmin = "admin"
	RoleStaff = "staff"

Error reasons carried in ErrorResponse.Reason, from ReasonBadRequest through
ReasonStorageFailure.
*/
package models
