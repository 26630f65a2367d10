// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/handlers"
	"github.com/pattarapol/smartvote/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	tokenHandler := handlers.NewTokenHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db, cfg)
	partyHandler := handlers.NewPartyHandler(db, cfg)
	voterHandler := handlers.NewVoterHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	operatorHandler := handlers.NewOperatorHandler(db, cfg)
	activityHandler := handlers.NewActivityHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Operator sessions
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(authHandler.Login))
	mux.HandleFunc("POST /auth/logout", middleware.WithLogging(authHandler.Logout))
	mux.HandleFunc("GET /auth/verify", middleware.WithLogging(authHandler.Verify))
	mux.HandleFunc("POST /auth/init-admin", middleware.WithLogging(authHandler.InitAdmin))

	// Ballot lifecycle: check-in desk (operator) and kiosk (anonymous)
	mux.HandleFunc("POST /tokens/activate", middleware.WithLogging(tokenHandler.Activate))
	mux.HandleFunc("POST /tokens/validate", middleware.WithLogging(tokenHandler.Validate))
	mux.HandleFunc("GET /tokens/{code}", middleware.WithLogging(tokenHandler.GetToken))
	mux.HandleFunc("POST /votes", middleware.WithLogging(voteHandler.Submit))

	// Public ballot data
	mux.HandleFunc("GET /election/status", middleware.WithLogging(adminHandler.ElectionStatus))
	mux.HandleFunc("GET /parties", middleware.WithLogging(partyHandler.List))

	// Check-in desk lookups
	mux.HandleFunc("GET /voters/{voter_id}", middleware.WithLogging(voterHandler.Get))

	// Admin operations
	mux.HandleFunc("POST /admin/election-status", middleware.WithLogging(adminHandler.SetElectionStatus))
	mux.HandleFunc("POST /admin/expire-check", middleware.WithLogging(adminHandler.ExpireCheck))
	mux.HandleFunc("POST /admin/tokens/generate", middleware.WithLogging(adminHandler.GenerateTokens))
	mux.HandleFunc("POST /admin/tokens/cancel-batch", middleware.WithLogging(adminHandler.CancelBatch))
	mux.HandleFunc("GET /admin/print-logs", middleware.WithLogging(adminHandler.PrintLogs))
	mux.HandleFunc("POST /admin/reset", middleware.WithLogging(adminHandler.Reset))
	mux.HandleFunc("POST /admin/parties", middleware.WithLogging(partyHandler.Create))
	mux.HandleFunc("PUT /admin/parties/{id}", middleware.WithLogging(partyHandler.Update))
	mux.HandleFunc("DELETE /admin/parties/{id}", middleware.WithLogging(partyHandler.Delete))
	mux.HandleFunc("POST /admin/voters/import", middleware.WithLogging(voterHandler.Import))
	mux.HandleFunc("GET /admin/operators", middleware.WithLogging(operatorHandler.List))
	mux.HandleFunc("POST /admin/operators", middleware.WithLogging(operatorHandler.Create))
	mux.HandleFunc("GET /admin/operators/{id}", middleware.WithLogging(operatorHandler.Get))
	mux.HandleFunc("PUT /admin/operators/{id}", middleware.WithLogging(operatorHandler.Update))
	mux.HandleFunc("DELETE /admin/operators/{id}", middleware.WithLogging(operatorHandler.Delete))
	mux.HandleFunc("GET /admin/activity-logs", middleware.WithLogging(activityHandler.List))
	mux.HandleFunc("GET /admin/results", middleware.WithLogging(resultsHandler.Results))
	mux.HandleFunc("GET /admin/stats", middleware.WithLogging(resultsHandler.Stats))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("smartvote API v1"))
	})

	return mux
}
