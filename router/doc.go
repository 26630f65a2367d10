// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the smartvote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Operator sessions:

	POST /auth/login      - Log in, returns a bearer token
	POST /auth/logout     - Invalidate the session
	GET  /auth/verify     - Resolve the current session
	POST /auth/init-admin - First-run admin setup

Ballot lifecycle:

	POST /tokens/activate - Bind a token to a voter (operator)
	POST /tokens/validate - Kiosk scan, begins a voting session (public)
	GET  /tokens/{code}   - Token lookup (operator)
	POST /votes           - Final vote submission (public)

Public ballot data:

	GET /election/status - Effective status, schedule, server time
	GET /parties         - Ballot list in number order

Check-in desk:

	GET /voters/{voter_id} - Roll lookup before activation

Admin (requires admin role):

	POST   /admin/election-status     - Set status and schedule
	POST   /admin/expire-check        - Run one expiry sweep
	POST   /admin/tokens/generate     - Mint a print batch
	POST   /admin/tokens/cancel-batch - Delete an unused batch
	GET    /admin/print-logs          - Batch audit trail
	POST   /admin/reset               - Clear election data
	POST   /admin/parties             - Create party
	PUT    /admin/parties/{id}        - Update party
	DELETE /admin/parties/{id}        - Delete party
	POST   /admin/voters/import       - Bulk-load the roll
	GET    /admin/operators           - List accounts
	POST   /admin/operators           - Create staff or admin account
	GET    /admin/operators/{id}      - Account lookup
	PUT    /admin/operators/{id}      - Rename, re-role, or reset password
	DELETE /admin/operators/{id}      - Remove an account
	GET    /admin/activity-logs       - Administrative action trail
	GET    /admin/results             - Tallies
	GET    /admin/stats               - Live dashboard counters

# Handler Initialization

The router creates handler instances with dependency injection:

	authHandler := handlers.NewAuthHandler(db, cfg)
	tokenHandler := handlers.NewTokenHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
