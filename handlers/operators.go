// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/middleware"
	"github.com/pattarapol/smartvote/models"
)

// OperatorHandler manages poll-worker and admin accounts. Every endpoint is
// admin-only; staff accounts exist to run the check-in desk, not each other.
type OperatorHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewOperatorHandler(db *sql.DB, cfg cliparse.Config) *OperatorHandler {
	return &OperatorHandler{db: db, cfg: cfg}
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleStaff
}

// List handles GET /admin/operators.
func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	if op := requireAdmin(h.db, w, r); op == nil {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, username, role, display_name
		FROM operator
		ORDER BY username
	`)
	if err != nil {
		slog.Error("failed to query operators", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	defer rows.Close()

	operators := []models.Operator{}
	for rows.Next() {
		var o models.Operator
		if err := rows.Scan(&o.ID, &o.Username, &o.Role, &o.DisplayName); err != nil {
			slog.Error("failed to scan operator", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
			return
		}
		operators = append(operators, o)
	}
	if err := rows.Err(); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, operators)
}

// Create handles POST /admin/operators.
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(h.db, w, r)
	if admin == nil {
		return
	}

	var req models.CreateOperatorRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Username and a password of at least 8 characters are required")
		return
	}
	if !validRole(req.Role) {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Role must be admin or staff")
		return
	}

	var taken int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM operator WHERE username = $1`, req.Username).Scan(&taken); err != nil {
		slog.Error("failed to check username", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if taken > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "That username is already taken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to create operator")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	id := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO operator (id, username, password_hash, role, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, req.Username, hash, req.Role, displayName, time.Now())
	if err != nil {
		slog.Error("failed to insert operator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to create operator")
		return
	}

	slog.Info("operator created", "operator_id", id, "username", req.Username, "role", req.Role, "created_by", admin.ID)
	logActivity(h.db, admin, "operator_created", req.Username+" ("+req.Role+")")

	middleware.JSONResponse(w, http.StatusCreated, models.Operator{
		ID: id, Username: req.Username, Role: req.Role, DisplayName: displayName,
	})
}

// Get handles GET /admin/operators/{id}.
func (h *OperatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	if op := requireAdmin(h.db, w, r); op == nil {
		return
	}

	id := r.PathValue("id")
	var o models.Operator
	err := h.db.QueryRow(`
		SELECT id, username, role, display_name
		FROM operator
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Username, &o.Role, &o.DisplayName)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No operator found with that ID")
		return
	}
	if err != nil {
		slog.Error("failed to query operator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, o)
}

// Update handles PUT /admin/operators/{id}: display name, role, and password
// reset. An admin cannot change their own role, so the deployment always
// keeps the admin that is making the change.
func (h *OperatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(h.db, w, r)
	if admin == nil {
		return
	}

	id := r.PathValue("id")
	var req models.UpdateOperatorRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Invalid JSON")
		return
	}
	if req.DisplayName == nil && req.Role == nil && req.NewPassword == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Nothing to update")
		return
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Role must be admin or staff")
			return
		}
		if id == admin.ID {
			middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "You cannot change your own role")
			return
		}
	}
	if req.NewPassword != nil && len(*req.NewPassword) < 8 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ReasonBadRequest, "Password must be at least 8 characters")
		return
	}

	var exists int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM operator WHERE id = $1`, id).Scan(&exists); err != nil {
		slog.Error("failed to query operator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}
	if exists == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No operator found with that ID")
		return
	}

	if req.DisplayName != nil {
		if _, err := h.db.Exec(`UPDATE operator SET display_name = $1 WHERE id = $2`, *req.DisplayName, id); err != nil {
			slog.Error("failed to update operator", "error", err, "operator_id", id)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to update operator")
			return
		}
	}
	if req.Role != nil {
		if _, err := h.db.Exec(`UPDATE operator SET role = $1 WHERE id = $2`, *req.Role, id); err != nil {
			slog.Error("failed to update operator", "error", err, "operator_id", id)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to update operator")
			return
		}
	}
	if req.NewPassword != nil {
		hash, err := auth.HashPassword(*req.NewPassword)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to update operator")
			return
		}
		if _, err := h.db.Exec(`UPDATE operator SET password_hash = $1 WHERE id = $2`, hash, id); err != nil {
			slog.Error("failed to update operator", "error", err, "operator_id", id)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to update operator")
			return
		}
	}

	var o models.Operator
	err := h.db.QueryRow(`
		SELECT id, username, role, display_name FROM operator WHERE id = $1
	`, id).Scan(&o.ID, &o.Username, &o.Role, &o.DisplayName)
	if err != nil {
		slog.Error("failed to re-read operator", "error", err, "operator_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	slog.Info("operator updated", "operator_id", id, "updated_by", admin.ID)
	logActivity(h.db, admin, "operator_updated", o.Username)

	middleware.JSONResponse(w, http.StatusOK, o)
}

// Delete handles DELETE /admin/operators/{id}. Sessions go with the account
// via the cascade on operator_session.
func (h *OperatorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(h.db, w, r)
	if admin == nil {
		return
	}

	id := r.PathValue("id")
	if id == admin.ID {
		middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "You cannot delete your own account")
		return
	}

	var username string
	err := h.db.QueryRow(`SELECT username FROM operator WHERE id = $1`, id).Scan(&username)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.ReasonNotFound, "No operator found with that ID")
		return
	}
	if err != nil {
		slog.Error("failed to query operator", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Database error")
		return
	}

	// The cascade does not fire on every driver configuration, so sessions
	// are removed explicitly.
	if _, err := h.db.Exec(`DELETE FROM operator_session WHERE operator_id = $1`, id); err != nil {
		slog.Error("failed to delete operator sessions", "error", err, "operator_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to delete operator")
		return
	}
	if _, err := h.db.Exec(`DELETE FROM operator WHERE id = $1`, id); err != nil {
		slog.Error("failed to delete operator", "error", err, "operator_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.ReasonStorageFailure, "Failed to delete operator")
		return
	}

	slog.Info("operator deleted", "operator_id", id, "username", username, "deleted_by", admin.ID)
	logActivity(h.db, admin, "operator_deleted", username)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Operator deleted"})
}
