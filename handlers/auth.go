// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
	"github.com/pattarapol/smartvote/ratelimit"
)

type AuthHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, limiter: ratelimit.NewLimiter(db)}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}

	if req.Username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Username and password are required")
		return
	}

	now := time.Now()
	decision, err := h.limiter.Allow(middleware.GetClientIP(r), ratelimit.ActionLogin,
		h.cfg.RateLimitMaxAttempts, h.cfg.RateLimitWindow(), now)
	if err != nil {
		slog.Error("rate limit check failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Internal error")
		return
	}
	if !decision.Allowed {
		middleware.ErrorResponse(w, http.StatusTooManyRequests, models.ReasonRateLimited, "Too many attempts - try again later")
		return
	}

	var op models.Operator
	var passwordHash string
	err = h.db.QueryRow(`
		SELECT id, username, password_hash, role, display_name
		FROM operator
		WHERE username = $1
	`, req.Username).Scan(&op.ID, &op.Username, &passwordHash, &op.Role, &op.DisplayName)

	// Unknown user and wrong password produce the same response
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		slog.Error("failed to query operator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "Invalid username or password")
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to log in")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO operator_session (token, operator_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, token, op.ID, now.Add(h.cfg.SessionTTL()), now)
	if err != nil {
		slog.Error("failed to insert session", "error", err, "operator_id", op.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to log in")
		return
	}

	slog.Info("operator logged in", "operator_id", op.ID, "username", op.Username)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		SessionToken: token,
		Operator:     op,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "Not logged in")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM operator_session WHERE token = $1`, token); err != nil {
		slog.Error("failed to delete session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to log out")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Verify handles GET /auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	op := requireOperator(h.db, w, r)
	if op == nil {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, op)
}

// InitAdmin handles POST /auth/init-admin. It creates the first admin
// account and refuses once any operator exists, so it is only usable on a
// fresh install.
func (h *AuthHandler) InitAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Username and a password of at least 8 characters are required")
		return
	}

	var count int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM operator`).Scan(&count); err != nil {
		slog.Error("failed to count operators", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if count > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "Setup has already been completed")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to create admin")
		return
	}

	id := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO operator (id, username, password_hash, role, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, req.Username, hash, models.RoleAdmin, req.Username, time.Now())
	if err != nil {
		slog.Error("failed to insert admin", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to create admin")
		return
	}

	slog.Info("admin account created", "operator_id", id, "username", req.Username)
	logActivity(h.db, &models.Operator{ID: id, Username: req.Username}, "admin_initialized", "")

	middleware.JSONResponse(w, http.StatusCreated, models.Operator{
		ID: id, Username: req.Username, Role: models.RoleAdmin, DisplayName: req.Username,
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// requireOperator resolves the session on the request. On failure it writes
// a 401 and returns nil.
func requireOperator(db *sql.DB, w http.ResponseWriter, r *http.Request) *models.Operator {
	token := bearerToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "Login required")
		return nil
	}

	var op models.Operator
	err := db.QueryRow(`
		SELECT o.id, o.username, o.role, o.display_name
		FROM operator_session s
		JOIN operator o ON o.id = s.operator_id
		WHERE s.token = $1 AND s.expires_at > $2
	`, token, time.Now()).Scan(&op.ID, &op.Username, &op.Role, &op.DisplayName)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.ReasonUnauthorized, "Session expired - please log in again")
		return nil
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return nil
	}
	return &op
}

// requireAdmin is requireOperator plus a role check.
func requireAdmin(db *sql.DB, w http.ResponseWriter, r *http.Request) *models.Operator {
	op := requireOperator(db, w, r)
	if op == nil {
		return nil
	}
	if op.Role != models.RoleAdmin {
		middleware.ErrorResponse(w, http.StatusForbidden, models.ReasonUnauthorized, "Administrator access required")
		return nil
	}
	return op
}
