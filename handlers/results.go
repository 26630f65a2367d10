// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// Results handles GET /admin/results: per-party tallies, a station-level
// breakdown, and the abstain count. Everything aggregates from the vote
// table alone, which carries no voter identity.
func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	if op := requireAdmin(h.db, w, r); op == nil {
		return
	}

	rows, err := h.db.Query(`
		SELECT p.id, p.name, p.number, COUNT(v.id)
		FROM party p
		LEFT JOIN vote v ON v.party_id = p.id
		GROUP BY p.id, p.name, p.number
		ORDER BY p.number
	`)
	if err != nil {
		slog.Error("failed to query results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer rows.Close()

	resp := models.ResultsResponse{Parties: []models.PartyResult{}, ByLevel: []models.LevelResult{}}
	for rows.Next() {
		var p models.PartyResult
		if err := rows.Scan(&p.PartyID, &p.Name, &p.Number, &p.Votes); err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
			return
		}
		resp.Parties = append(resp.Parties, p)
	}
	if err := rows.Err(); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	levelRows, err := h.db.Query(`
		SELECT station_level, COUNT(*)
		FROM vote
		GROUP BY station_level
		ORDER BY station_level
	`)
	if err != nil {
		slog.Error("failed to query level breakdown", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer levelRows.Close()

	for levelRows.Next() {
		var l models.LevelResult
		if err := levelRows.Scan(&l.Level, &l.Votes); err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
			return
		}
		resp.ByLevel = append(resp.ByLevel, l)
	}
	if err := levelRows.Err(); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	err = h.db.QueryRow(`
		SELECT COUNT(*), COUNT(CASE WHEN is_abstain = 1 THEN 1 END)
		FROM vote
	`).Scan(&resp.TotalVotes, &resp.AbstainCount)
	if err != nil {
		slog.Error("failed to query vote totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Stats handles GET /admin/stats: live token and turnout counters for the
// election-day dashboard. Any logged-in operator may watch it.
func (h *ResultsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if op := requireOperator(h.db, w, r); op == nil {
		return
	}

	var resp models.StatsResponse

	rows, err := h.db.Query(`
		SELECT status, COUNT(*)
		FROM ballot_token
		GROUP BY status
	`)
	if err != nil {
		slog.Error("failed to query token stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
			return
		}
		switch status {
		case models.TokenInactive:
			resp.Tokens.Inactive = count
		case models.TokenActivated:
			resp.Tokens.Activated = count
		case models.TokenVoting:
			resp.Tokens.Voting = count
		case models.TokenUsed:
			resp.Tokens.Used = count
		case models.TokenExpired:
			resp.Tokens.Expired = count
		}
	}
	if err := rows.Err(); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	err = h.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN vote_status = 'voted' THEN 1 END),
		       COUNT(CASE WHEN vote_status = 'absent' THEN 1 END)
		FROM voter
	`).Scan(&resp.Voters.Total, &resp.Voters.Voted, &resp.Voters.Absent)
	if err != nil {
		slog.Error("failed to query voter stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
