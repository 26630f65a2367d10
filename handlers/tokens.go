// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/ballot"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/election"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
	"github.com/pattarapol/smartvote/ratelimit"
)

type TokenHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	store   *ballot.Store
	gate    *election.Gate
	limiter *ratelimit.Limiter
}

func NewTokenHandler(db *sql.DB, cfg cliparse.Config) *TokenHandler {
	return &TokenHandler{
		db:      db,
		cfg:     cfg,
		store:   ballot.NewStore(db),
		gate:    election.NewGate(db, cfg.TimezoneOffsetHours),
		limiter: ratelimit.NewLimiter(db),
	}
}

// Activate handles POST /tokens/activate. A logged-in operator binds an
// inactive token to a voter at the check-in desk.
func (h *TokenHandler) Activate(w http.ResponseWriter, r *http.Request) {
	op := requireOperator(h.db, w, r)
	if op == nil {
		return
	}

	var req models.ActivateTokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}

	code := auth.NormalizeCode(req.Code)
	if err := auth.ValidateCodeFormat(code); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Malformed ballot code")
		return
	}
	if req.VoterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Voter ID is required")
		return
	}

	now := time.Now()

	// Activation attempts count against the operator, not the kiosk IP
	decision, err := h.limiter.Allow(op.ID, ratelimit.ActionActivate,
		h.cfg.RateLimitMaxAttempts, h.cfg.RateLimitWindow(), now)
	if err != nil {
		slog.Error("rate limit check failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Internal error")
		return
	}
	if !decision.Allowed {
		middleware.ErrorResponse(w, http.StatusTooManyRequests, models.ReasonRateLimited, "Too many activation attempts - try again later")
		return
	}

	st, err := h.gate.Resolve(now)
	if err != nil {
		slog.Error("failed to resolve election status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	if err := h.store.Activate(st, now, code, req.VoterID, op.ID, req.StationLevel); err != nil {
		writeBallotError(w, err)
		return
	}

	slog.Info("token activated", "code", code, "operator_id", op.ID, "station_level", req.StationLevel)

	middleware.JSONResponse(w, http.StatusOK, models.ActivateTokenResponse{
		Code:    code,
		Warning: "Ballot expires " + humanize.Time(now.Add(h.cfg.TokenTimeout())) + " if not used",
	})
}

// Validate handles POST /tokens/validate. A kiosk scans an activated token to
// begin a voting session. No login: kiosks are anonymous, so attempts are
// rate limited per client IP. The kiosk's station may arrive in the body or
// in the X-Station-Level header; the body wins.
func (h *TokenHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ScanTokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}

	code := auth.NormalizeCode(req.Code)
	if err := auth.ValidateCodeFormat(code); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Malformed ballot code")
		return
	}

	stationLevel := req.StationLevel
	if stationLevel == "" {
		stationLevel = r.Header.Get("X-Station-Level")
	}

	now := time.Now()

	decision, err := h.limiter.Allow(middleware.GetClientIP(r), ratelimit.ActionValidate,
		h.cfg.RateLimitMaxAttempts, h.cfg.RateLimitWindow(), now)
	if err != nil {
		slog.Error("rate limit check failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Internal error")
		return
	}
	if !decision.Allowed {
		middleware.ErrorResponse(w, http.StatusTooManyRequests, models.ReasonRateLimited, "Too many attempts - please wait before trying again")
		return
	}

	st, err := h.gate.Resolve(now)
	if err != nil {
		slog.Error("failed to resolve election status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	tok, err := h.store.Scan(st, now, code, stationLevel)
	if err != nil {
		writeBallotError(w, err)
		return
	}

	slog.Info("token scanned", "code", code, "station_level", stationLevel)

	middleware.JSONResponse(w, http.StatusOK, models.ScanTokenResponse{
		Code:         tok.Code,
		StationLevel: tok.StationLevel,
	})
}

// GetToken handles GET /tokens/{code}. Operator-only lookup for
// troubleshooting at the check-in desk; the voter link is never serialized.
func (h *TokenHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	if op := requireOperator(h.db, w, r); op == nil {
		return
	}

	code := auth.NormalizeCode(r.PathValue("code"))
	if err := auth.ValidateCodeFormat(code); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Malformed ballot code")
		return
	}

	tok, err := h.store.GetByCode(code)
	if err != nil {
		writeBallotError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tok)
}
