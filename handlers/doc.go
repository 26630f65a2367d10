// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP handlers for the voting service.

Handlers are grouped by concern, each with a constructor taking the database
and config:

  - AuthHandler: operator login, logout, session verification, first-run
    admin setup
  - TokenHandler: ballot activation at the check-in desk and kiosk scans
  - VoteHandler: final vote submission
  - AdminHandler: election status, expiry sweeps, token batches, reset
  - PartyHandler: party CRUD plus the public ballot list
  - VoterHandler: roll import and lookup
  - OperatorHandler: staff and admin account management
  - ActivityHandler: the administrative action trail
  - ResultsHandler: tallies and live dashboard counters

Handlers parse and validate the request, resolve the election status once,
and delegate every token transition to ballot.Store; writeBallotError maps
the store's error taxonomy to HTTP statuses and the one sentence a kiosk or
operator terminal shows. The check-in endpoints require an operator session
(Authorization: Bearer); kiosk endpoints are anonymous and rate limited per
client IP instead.
*/
package handlers
