// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers.

# Logging

WithLogging wraps handlers with slog request/completion logging:

	mux.HandleFunc("POST /votes", middleware.WithLogging(handler.SubmitVote))

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusConflict, models.ReasonInvalidState, "This ballot was already used")
	err := middleware.ParseJSONBody(r, &req)

Every error envelope carries a stable machine-readable reason alongside the
one human sentence the kiosk displays; which internal step failed is never
part of the envelope.

# CORS

CORS middleware handles preflight requests and sets permissive headers for
the polling-station frontends.

# Client IP

GetClientIP extracts the real client IP, checking X-Forwarded-For and
X-Real-IP before falling back to RemoteAddr. Rate-limit identifiers for
kiosk endpoints are built from this value.
*/
package middleware
