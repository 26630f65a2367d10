// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

// logActivity records an administrative action. Best effort: a failed write
// is logged and swallowed so the audit trail never blocks the action itself.
func logActivity(db *sql.DB, op *models.Operator, action, detail string) {
	id, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to record activity", "error", err, "action", action)
		return
	}

	var detailVal *string
	if detail != "" {
		detailVal = &detail
	}

	_, err = db.Exec(`
		INSERT INTO activity_log (id, operator_id, username, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, op.ID, op.Username, action, detailVal, time.Now())
	if err != nil {
		slog.Error("failed to record activity", "error", err, "action", action)
	}
}

type ActivityHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewActivityHandler(db *sql.DB, cfg cliparse.Config) *ActivityHandler {
	return &ActivityHandler{db: db, cfg: cfg}
}

// List handles GET /admin/activity-logs. Newest first; ?limit caps the page,
// default 100.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if op := requireAdmin(h.db, w, r); op == nil {
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Limit must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := h.db.Query(`
		SELECT id, operator_id, username, action, detail, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		slog.Error("failed to query activity logs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.OperatorID, &l.Username, &l.Action, &l.Detail, &l.CreatedAt); err != nil {
			slog.Error("failed to scan activity log", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
			return
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, logs)
}
