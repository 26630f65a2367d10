// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/pattarapol/smartvote/ballot"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

// stateMessages maps a token's actual state to the one sentence a kiosk or
// operator terminal shows when a transition is rejected from that state.
var stateMessages = map[string]string{
	models.TokenInactive:  "This ballot has not been activated yet - please see a poll worker",
	models.TokenActivated: "This ballot has not been scanned at a voting kiosk yet",
	models.TokenVoting:    "This ballot is already in use at a kiosk",
	models.TokenUsed:      "This ballot has already been used",
	models.TokenExpired:   "This ballot has expired",
}

// writeBallotError maps the ballot error taxonomy onto stable HTTP statuses
// and reason codes. Only storage failures reach the server log; every other
// outcome is an expected, user-facing rejection.
func writeBallotError(w http.ResponseWriter, err error) {
	var invalidState *ballot.InvalidStateError
	var closed *ballot.ElectionClosedError
	var mismatch *ballot.StationMismatchError
	var storage *ballot.StorageError

	switch {
	case errors.Is(err, ballot.ErrTokenNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound,
			"This code is not in the system")

	case errors.Is(err, ballot.ErrVoterNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound,
			"No voter found with that ID")

	case errors.Is(err, ballot.ErrPartyNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound,
			"Unknown party selection")

	case errors.As(err, &invalidState):
		msg := stateMessages[invalidState.Current]
		if msg == "" {
			msg = "This ballot is not in a valid state"
		}
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, msg)

	case errors.As(err, &closed):
		msg := "Voting is closed"
		if closed.OpensAt != nil {
			msg = "Voting is closed - opens " + humanize.Time(*closed.OpensAt)
		}
		middleware.ErrorResponse(w, http.StatusForbidden, models.ReasonElectionClosed, msg)

	case errors.As(err, &mismatch):
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonStationMismatch,
			"This ballot belongs to station "+mismatch.TokenLevel)

	case errors.Is(err, ballot.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonAlreadyVoted,
			"This voter has already voted")

	case errors.Is(err, ballot.ErrAlreadyAbsent):
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonAlreadyAbsent,
			"This voter was marked absent")

	case errors.Is(err, ballot.ErrVoterHasActiveToken):
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState,
			"This voter already has an activated ballot")

	case errors.Is(err, ballot.ErrBatchInUse):
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState,
			"Batch has tokens that were already activated or used")

	case errors.As(err, &storage):
		slog.Error("storage failure", "op", storage.Op, "error", storage.Err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure,
			"Temporary storage error - please try again")

	default:
		slog.Error("unexpected error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure,
			"Internal error")
	}
}
