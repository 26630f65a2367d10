// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

type VoterHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVoterHandler(db *sql.DB, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{db: db, cfg: cfg}
}

// Import handles POST /admin/voters/import: bulk-loads the voter roll.
// Voter IDs already on the roll are skipped, so the import is idempotent and
// never touches an existing voter's status.
func (h *VoterHandler) Import(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	var req models.ImportVotersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if len(req.Voters) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "No voters in request")
		return
	}
	for _, v := range req.Voters {
		if v.VoterID == "" || v.FirstName == "" || v.LastName == "" || v.Level == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest,
				"Each voter needs voter_id, first_name, last_name, and level")
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now()
	imported, skipped := 0, 0
	for _, v := range req.Voters {
		id, err := auth.GenerateID(16)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Import failed")
			return
		}
		res, err := tx.Exec(`
			INSERT INTO voter (id, voter_id, prefix, first_name, last_name, level, room, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (voter_id) DO NOTHING
		`, id, v.VoterID, nullable(v.Prefix), v.FirstName, v.LastName, v.Level, nullable(v.Room), now)
		if err != nil {
			slog.Error("failed to insert voter", "error", err, "voter_id", v.VoterID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Import failed")
			return
		}
		if n, err := res.RowsAffected(); err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Import failed")
			return
		} else if n == 1 {
			imported++
		} else {
			skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit voter import", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Import failed")
		return
	}

	slog.Info("voter roll imported", "imported", imported, "skipped", skipped, "operator_id", op.ID)
	logActivity(h.db, op, "voters_imported", fmt.Sprintf("%d imported, %d skipped", imported, skipped))

	middleware.JSONResponse(w, http.StatusOK, models.ImportVotersResponse{
		Imported: imported,
		Skipped:  skipped,
	})
}

// Get handles GET /voters/{voter_id}: the check-in desk looks a voter up
// before activating a ballot for them.
func (h *VoterHandler) Get(w http.ResponseWriter, r *http.Request) {
	if op := requireOperator(h.db, w, r); op == nil {
		return
	}

	voterID := r.PathValue("voter_id")

	var v models.Voter
	err := h.db.QueryRow(`
		SELECT id, voter_id, prefix, first_name, last_name, level, room,
		       vote_status, voted_at, created_at
		FROM voter
		WHERE voter_id = $1
	`, voterID).Scan(
		&v.ID, &v.VoterID, &v.Prefix, &v.FirstName, &v.LastName,
		&v.Level, &v.Room, &v.VoteStatus, &v.VotedAt, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No voter found with that ID")
		return
	}
	if err != nil {
		slog.Error("failed to query voter", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, v)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
