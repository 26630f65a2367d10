// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

type PartyHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPartyHandler(db *sql.DB, cfg cliparse.Config) *PartyHandler {
	return &PartyHandler{db: db, cfg: cfg}
}

// List handles GET /parties. Public: the kiosk ballot screen renders from
// this list.
func (h *PartyHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, name, number, created_at
		FROM party
		ORDER BY number
	`)
	if err != nil {
		slog.Error("failed to query parties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer rows.Close()

	parties := []models.Party{}
	for rows.Next() {
		var p models.Party
		if err := rows.Scan(&p.ID, &p.Name, &p.Number, &p.CreatedAt); err != nil {
			slog.Error("failed to scan party", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
			return
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, parties)
}

// Create handles POST /admin/parties.
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	var req models.PartyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" || req.Number < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Party name and a positive number are required")
		return
	}

	var taken int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM party WHERE number = $1`, req.Number).Scan(&taken)
	if err != nil {
		slog.Error("failed to check party number", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if taken > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "That ballot number is already taken")
		return
	}

	id, err := auth.GenerateID(16)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to create party")
		return
	}
	now := time.Now()

	_, err = h.db.Exec(`
		INSERT INTO party (id, name, number, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, req.Name, req.Number, now)
	if err != nil {
		slog.Error("failed to insert party", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to create party")
		return
	}

	slog.Info("party created", "party_id", id, "number", req.Number, "operator_id", op.ID)
	logActivity(h.db, op, "party_created", req.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.PartyResponse{
		Party: models.Party{ID: id, Name: req.Name, Number: req.Number, CreatedAt: now},
	})
}

// Update handles PUT /admin/parties/{id}.
func (h *PartyHandler) Update(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	id := r.PathValue("id")

	var req models.PartyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" || req.Number < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Party name and a positive number are required")
		return
	}

	var taken int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM party WHERE number = $1 AND id != $2`, req.Number, id).Scan(&taken)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if taken > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "That ballot number is already taken")
		return
	}

	res, err := h.db.Exec(`
		UPDATE party SET name = $1, number = $2 WHERE id = $3
	`, req.Name, req.Number, id)
	if err != nil {
		slog.Error("failed to update party", "error", err, "party_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to update party")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No party found with that ID")
		return
	}

	slog.Info("party updated", "party_id", id, "operator_id", op.ID)
	logActivity(h.db, op, "party_updated", req.Name)

	var p models.Party
	err = h.db.QueryRow(`SELECT id, name, number, created_at FROM party WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Number, &p.CreatedAt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PartyResponse{Party: p})
}

// Delete handles DELETE /admin/parties/{id}. A party that has received votes
// cannot be deleted: vote rows reference it.
func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	id := r.PathValue("id")

	var votes int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM vote WHERE party_id = $1`, id).Scan(&votes)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if votes > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "This party has recorded votes and cannot be deleted")
		return
	}

	res, err := h.db.Exec(`DELETE FROM party WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete party", "error", err, "party_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to delete party")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No party found with that ID")
		return
	}

	slog.Info("party deleted", "party_id", id, "operator_id", op.ID)
	logActivity(h.db, op, "party_deleted", id)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Party deleted"})
}
