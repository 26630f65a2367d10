// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Token status constants
const (
	TokenInactive  = "inactive"
	TokenActivated = "activated"
	TokenVoting    = "voting"
	TokenUsed      = "used"
	TokenExpired   = "expired"
)

// Voter terminal status constants. A voter with neither is still eligible.
const (
	VoterVoted  = "voted"
	VoterAbsent = "absent"
)

// Election status constants
const (
	ElectionOpen      = "open"
	ElectionClosed    = "closed"
	ElectionScheduled = "scheduled"
)

// Operator roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Machine-readable failure reasons carried in every error envelope
const (
	ReasonBadRequest      = "bad_request"
	ReasonNotFound        = "not_found"
	ReasonInvalidState    = "invalid_state"
	ReasonElectionClosed  = "election_closed"
	ReasonAlreadyVoted    = "already_voted"
	ReasonAlreadyAbsent   = "already_absent"
	ReasonStationMismatch = "station_mismatch"
	ReasonRateLimited     = "rate_limited"
	ReasonUnauthorized    = "unauthorized"
	ReasonStorageFailure  = "storage_failure"
)

// Request types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ActivateTokenRequest struct {
	Code         string `json:"code"`
	VoterID      string `json:"voter_id"`
	StationLevel string `json:"station_level"`
}

type ScanTokenRequest struct {
	Code         string `json:"code"`
	StationLevel string `json:"station_level,omitempty"`
}

type SubmitVoteRequest struct {
	Code    string  `json:"code"`
	PartyID *string `json:"party_id,omitempty"`
	Abstain bool    `json:"abstain,omitempty"`
}

type ExpireCheckRequest struct {
	TimeoutMinutes int `json:"timeout_minutes,omitempty"`
}

type SetElectionStatusRequest struct {
	Status    *string `json:"status,omitempty"`
	OpenTime  *string `json:"open_time,omitempty"`
	CloseTime *string `json:"close_time,omitempty"`
}

type GenerateTokensRequest struct {
	Count        int     `json:"count"`
	StationLevel *string `json:"station_level,omitempty"`
}

type CancelBatchRequest struct {
	BatchID string `json:"batch_id"`
}

type VoterImport struct {
	VoterID   string `json:"voter_id"`
	Prefix    string `json:"prefix,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Level     string `json:"level"`
	Room      string `json:"room,omitempty"`
}

type ImportVotersRequest struct {
	Voters []VoterImport `json:"voters"`
}

type PartyRequest struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

type CreateOperatorRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
}

type UpdateOperatorRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Role        *string `json:"role,omitempty"`
	NewPassword *string `json:"new_password,omitempty"`
}

// Response types

type LoginResponse struct {
	SessionToken string   `json:"session_token"`
	Operator     Operator `json:"operator"`
}

type ActivateTokenResponse struct {
	Code    string `json:"code"`
	Warning string `json:"warning,omitempty"`
}

type ScanTokenResponse struct {
	Code         string  `json:"code"`
	StationLevel *string `json:"station_level,omitempty"`
}

type SubmitVoteResponse struct {
	Message string `json:"message"`
}

type ExpireCheckResponse struct {
	ExpiredCount int `json:"expired_count"`
	AbsentCount  int `json:"absent_count"`
}

type ElectionStatusResponse struct {
	Status         string     `json:"status"`
	RawStatus      string     `json:"raw_status"`
	ScheduledOpen  *time.Time `json:"scheduled_open,omitempty"`
	ScheduledClose *time.Time `json:"scheduled_close,omitempty"`
	ServerTime     time.Time  `json:"server_time"`
}

type GenerateTokensResponse struct {
	BatchID string   `json:"batch_id"`
	Codes   []string `json:"codes"`
}

type CancelBatchResponse struct {
	Deleted int `json:"deleted"`
}

type ImportVotersResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type PartyResponse struct {
	Party Party `json:"party"`
}

type ResetResponse struct {
	Message string `json:"message"`
}

// Domain types

type Voter struct {
	ID         string     `json:"id"`
	VoterID    string     `json:"voter_id"`
	Prefix     *string    `json:"prefix,omitempty"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Level      string     `json:"level"`
	Room       *string    `json:"room,omitempty"`
	VoteStatus *string    `json:"vote_status,omitempty"`
	VotedAt    *time.Time `json:"voted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type BallotToken struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	Status          string     `json:"status"`
	VoterID         *string    `json:"-"` // Never expose in JSON
	StationLevel    *string    `json:"station_level,omitempty"`
	ActivatedBy     *string    `json:"activated_by,omitempty"`
	PrintBatchID    *string    `json:"print_batch_id,omitempty"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	VotingStartedAt *time.Time `json:"voting_started_at,omitempty"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Vote struct {
	ID           string    `json:"id"`
	PartyID      *string   `json:"party_id,omitempty"`
	StationLevel string    `json:"station_level"`
	TokenID      string    `json:"token_id"`
	IsAbstain    bool      `json:"is_abstain"`
	CreatedAt    time.Time `json:"created_at"`
}

type Party struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

type Operator struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

type ActivityLog struct {
	ID         string    `json:"id"`
	OperatorID *string   `json:"operator_id,omitempty"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	Detail     *string   `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type PrintLog struct {
	BatchID      string    `json:"batch_id"`
	TokenCount   int       `json:"token_count"`
	StationLevel *string   `json:"station_level,omitempty"`
	PrintedBy    string    `json:"printed_by"`
	PrintedAt    time.Time `json:"printed_at"`
}

// Results and stats

type PartyResult struct {
	PartyID string `json:"party_id"`
	Name    string `json:"name"`
	Number  int    `json:"number"`
	Votes   int    `json:"votes"`
}

type LevelResult struct {
	Level string `json:"level"`
	Votes int    `json:"votes"`
}

type ResultsResponse struct {
	Parties      []PartyResult `json:"parties"`
	ByLevel      []LevelResult `json:"by_level"`
	AbstainCount int           `json:"abstain_count"`
	TotalVotes   int           `json:"total_votes"`
}

type TokenStats struct {
	Inactive  int `json:"inactive"`
	Activated int `json:"activated"`
	Voting    int `json:"voting"`
	Used      int `json:"used"`
	Expired   int `json:"expired"`
}

type VoterStats struct {
	Total  int `json:"total"`
	Voted  int `json:"voted"`
	Absent int `json:"absent"`
}

type StatsResponse struct {
	Tokens TokenStats `json:"tokens"`
	Voters VoterStats `json:"voters"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}
