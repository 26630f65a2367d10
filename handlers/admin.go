// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/ballot"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/election"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

// codeRetries bounds regeneration on a ballot-code collision. With a 32^12
// code space a single retry is already overkill.
const codeRetries = 5

type AdminHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *ballot.Store
	gate  *election.Gate
}

func NewAdminHandler(db *sql.DB, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{
		db:    db,
		cfg:   cfg,
		store: ballot.NewStore(db),
		gate:  election.NewGate(db, cfg.TimezoneOffsetHours),
	}
}

// ElectionStatus handles GET /election/status. Public: kiosks and the
// check-in frontend poll it to show the open/closed banner and countdown.
func (h *AdminHandler) ElectionStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	st, err := h.gate.Resolve(now)
	if err != nil {
		slog.Error("failed to resolve election status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionStatusResponse{
		Status:         st.Effective,
		RawStatus:      st.Raw,
		ScheduledOpen:  st.OpensAt,
		ScheduledClose: st.ClosesAt,
		ServerTime:     now,
	})
}

// SetElectionStatus handles POST /admin/election-status.
func (h *AdminHandler) SetElectionStatus(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	var req models.SetElectionStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.Status == nil && req.OpenTime == nil && req.CloseTime == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Nothing to update")
		return
	}

	now := time.Now()
	if err := h.gate.SetStatus(req, now); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, err.Error())
		return
	}

	st, err := h.gate.Resolve(now)
	if err != nil {
		slog.Error("failed to resolve election status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	slog.Info("election status updated", "operator_id", op.ID, "raw_status", st.Raw, "effective", st.Effective)
	logActivity(h.db, op, "election_status_updated", st.Raw)

	middleware.JSONResponse(w, http.StatusOK, models.ElectionStatusResponse{
		Status:         st.Effective,
		RawStatus:      st.Raw,
		ScheduledOpen:  st.OpensAt,
		ScheduledClose: st.ClosesAt,
		ServerTime:     now,
	})
}

// ExpireCheck handles POST /admin/expire-check: one pass of the expiry
// sweeper. The body may override the configured timeout for the pass.
func (h *AdminHandler) ExpireCheck(w http.ResponseWriter, r *http.Request) {
	op := requireOperator(h.db, w, r)
	if op == nil {
		return
	}

	var req models.ExpireCheckRequest
	if r.ContentLength > 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
			return
		}
	}

	timeout := h.cfg.TokenTimeout()
	if req.TimeoutMinutes > 0 {
		timeout = time.Duration(req.TimeoutMinutes) * time.Minute
	}

	result, err := h.store.Sweep(time.Now(), timeout)
	if err != nil {
		writeBallotError(w, err)
		return
	}

	if result.ExpiredCount > 0 {
		slog.Info("expiry sweep completed", "expired", result.ExpiredCount,
			"absent", len(result.AbsentVoterIDs), "operator_id", op.ID)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ExpireCheckResponse{
		ExpiredCount: result.ExpiredCount,
		AbsentCount:  len(result.AbsentVoterIDs),
	})
}

// GenerateTokens handles POST /admin/tokens/generate: mints a batch of
// inactive tokens for printing and records the batch in the print log.
func (h *AdminHandler) GenerateTokens(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	var req models.GenerateTokensRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.Count < 1 || req.Count > 1000 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Count must be between 1 and 1000")
		return
	}

	now := time.Now()
	batchID := uuid.NewString()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer tx.Rollback()

	codes := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		code, err := insertFreshToken(tx, batchID, req.StationLevel, now)
		if err != nil {
			slog.Error("failed to generate token", "error", err, "batch_id", batchID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to generate tokens")
			return
		}
		codes = append(codes, code)
	}

	_, err = tx.Exec(`
		INSERT INTO print_log (batch_id, token_count, station_level, printed_by, printed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, batchID, req.Count, req.StationLevel, op.ID, now)
	if err != nil {
		slog.Error("failed to record print batch", "error", err, "batch_id", batchID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to generate tokens")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit token batch", "error", err, "batch_id", batchID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to generate tokens")
		return
	}

	slog.Info("token batch generated", "batch_id", batchID, "count", req.Count, "operator_id", op.ID)
	logActivity(h.db, op, "tokens_generated", fmt.Sprintf("%d codes in batch %s", req.Count, batchID))

	middleware.JSONResponse(w, http.StatusCreated, models.GenerateTokensResponse{
		BatchID: batchID,
		Codes:   codes,
	})
}

// insertFreshToken mints one code and inserts it, regenerating on the
// (astronomically unlikely) code collision.
func insertFreshToken(tx *sql.Tx, batchID string, stationLevel *string, now time.Time) (string, error) {
	for i := 0; i < codeRetries; i++ {
		code, err := auth.GenerateBallotCode()
		if err != nil {
			return "", err
		}
		id, err := auth.GenerateID(16)
		if err != nil {
			return "", err
		}

		res, err := tx.Exec(`
			INSERT INTO ballot_token (id, code, status, station_level, print_batch_id, created_at)
			VALUES ($1, $2, 'inactive', $3, $4, $5)
			ON CONFLICT (code) DO NOTHING
		`, id, code, stationLevel, batchID, now)
		if err != nil {
			return "", err
		}
		if n, err := res.RowsAffected(); err != nil {
			return "", err
		} else if n == 1 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not mint a unique code after %d attempts", codeRetries)
}

// CancelBatch handles POST /admin/tokens/cancel-batch: deletes a printed
// batch, but only while every token in it is still inactive. Once any token
// was activated the batch is part of the election record.
func (h *AdminHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	var req models.CancelBatchRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.BatchID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Batch ID is required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer tx.Rollback()

	var total, live int
	err = tx.QueryRow(`
		SELECT COUNT(*), COUNT(CASE WHEN status != 'inactive' THEN 1 END)
		FROM ballot_token
		WHERE print_batch_id = $1
	`, req.BatchID).Scan(&total, &live)
	if err != nil {
		slog.Error("failed to inspect batch", "error", err, "batch_id", req.BatchID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if total == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No batch found with that ID")
		return
	}
	if live > 0 {
		writeBallotError(w, ballot.ErrBatchInUse)
		return
	}

	res, err := tx.Exec(`
		DELETE FROM ballot_token
		WHERE print_batch_id = $1 AND status = 'inactive'
	`, req.BatchID)
	if err != nil {
		slog.Error("failed to delete batch", "error", err, "batch_id", req.BatchID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit batch cancel", "error", err, "batch_id", req.BatchID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	// The print_log row stays for the audit trail.
	slog.Info("token batch cancelled", "batch_id", req.BatchID, "deleted", deleted, "operator_id", op.ID)
	logActivity(h.db, op, "batch_cancelled", req.BatchID)

	middleware.JSONResponse(w, http.StatusOK, models.CancelBatchResponse{Deleted: int(deleted)})
}

// PrintLogs handles GET /admin/print-logs.
func (h *AdminHandler) PrintLogs(w http.ResponseWriter, r *http.Request) {
	if op := requireAdmin(h.db, w, r); op == nil {
		return
	}

	rows, err := h.db.Query(`
		SELECT batch_id, token_count, station_level, printed_by, printed_at
		FROM print_log
		ORDER BY printed_at DESC
	`)
	if err != nil {
		slog.Error("failed to query print logs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer rows.Close()

	logs := []models.PrintLog{}
	for rows.Next() {
		var l models.PrintLog
		if err := rows.Scan(&l.BatchID, &l.TokenCount, &l.StationLevel, &l.PrintedBy, &l.PrintedAt); err != nil {
			slog.Error("failed to scan print log", "error", err)
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

// Reset handles POST /admin/reset: wipes all election data (votes, tokens,
// voter statuses, print logs, rate-limit counters) while keeping voters,
// parties, operators, and settings. For rehearsal-day cleanup.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	op := requireAdmin(h.db, w, r)
	if op == nil {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM vote`,
		`DELETE FROM ballot_token`,
		`DELETE FROM print_log`,
		`DELETE FROM rate_limit`,
		`UPDATE voter SET vote_status = NULL, voted_at = NULL`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			slog.Error("failed to reset election data", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Reset failed")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit reset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Reset failed")
		return
	}

	// activity_log deliberately survives the reset; the reset itself is the
	// kind of action the trail exists for.
	slog.Warn("election data reset", "operator_id", op.ID)
	logActivity(h.db, op, "election_reset", "")

	middleware.JSONResponse(w, http.StatusOK, models.ResetResponse{
		Message: "All votes, tokens, and voter statuses have been cleared",
	})
}
