// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/ballot"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

type VoteHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *ballot.Store
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg, store: ballot.NewStore(db)}
}

// Submit handles POST /votes. The kiosk presents the token it scanned
// earlier plus the selection; the token must still be in voting. A session
// already in the booth is allowed to finish even if the schedule crosses the
// close time mid-vote, so there is no election-status check here.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}

	code := auth.NormalizeCode(req.Code)
	if err := auth.ValidateCodeFormat(code); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Malformed ballot code")
		return
	}
	if !req.Abstain && (req.PartyID == nil || *req.PartyID == "") {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Select a party or abstain")
		return
	}
	if req.Abstain && req.PartyID != nil && *req.PartyID != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Cannot abstain and select a party at the same time")
		return
	}

	vote, err := h.store.FinalizeVote(time.Now(), code, req.PartyID, req.Abstain)
	if err != nil {
		writeBallotError(w, err)
		return
	}

	// The log line carries no voter identity; the link is already severed.
	slog.Info("vote recorded", "vote_id", vote.ID, "station_level", vote.StationLevel, "abstain", vote.IsAbstain)

	middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
		Message: "Your vote has been recorded. Thank you for voting.",
	})
}
