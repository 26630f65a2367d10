// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/cliparse"
	"github.com/pattarapol/smartvote/db"
	"github.com/pattarapol/smartvote/election"
	"github.com/pattarapol/smartvote/models"
)

// SetupTestDB opens a fresh in-memory SQLite database with the full schema.
// The pool is pinned to one connection: an in-memory database exists per
// connection, and a single connection also serializes writers so the
// conditional-update races the tests provoke stay deterministic at the SQL
// layer.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	d, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	d.SetMaxOpenConns(1)

	if err := db.CreateSchema(d); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return d
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                   3372,
		DatabaseURL:            ":memory:",
		DatabaseType:           "sqlite",
		TimezoneOffsetHours:    7,
		TokenTimeoutMinutes:    30,
		RateLimitMaxAttempts:   10,
		RateLimitWindowMinutes: 5,
		SessionTTLHours:        12,
	}
}

// OpenElection persists status=open so gated transitions pass.
func OpenElection(t *testing.T, d *sql.DB) {
	t.Helper()
	_, err := d.Exec(`
		INSERT INTO election_setting (key, value, updated_at)
		VALUES ($1, 'open', $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, election.KeyStatus, time.Now())
	if err != nil {
		t.Fatalf("Failed to open election: %v", err)
	}
}

// CreateTestVoter adds a voter to the roll and returns the row ID.
func CreateTestVoter(t *testing.T, d *sql.DB, voterID string) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	_, err := d.Exec(`
		INSERT INTO voter (id, voter_id, first_name, last_name, level, created_at)
		VALUES ($1, $2, 'Test', 'Voter', 'M1', $3)
	`, id, voterID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return id
}

// CreateTestToken inserts a ballot token in the given status and returns its
// code. A non-empty voterID is bound for the live states; stationLevel may
// be empty for an unrestricted token.
func CreateTestToken(t *testing.T, d *sql.DB, status, voterID, stationLevel string) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	code, err := auth.GenerateBallotCode()
	if err != nil {
		t.Fatalf("Failed to generate code: %v", err)
	}

	now := time.Now()
	var boundVoter, station *string
	if voterID != "" && (status == models.TokenActivated || status == models.TokenVoting) {
		boundVoter = &voterID
	}
	if stationLevel != "" {
		station = &stationLevel
	}

	var activatedAt, votingStartedAt, usedAt *time.Time
	switch status {
	case models.TokenActivated:
		activatedAt = &now
	case models.TokenVoting:
		activatedAt = &now
		votingStartedAt = &now
	case models.TokenUsed:
		activatedAt = &now
		votingStartedAt = &now
		usedAt = &now
	}

	_, err = d.Exec(`
		INSERT INTO ballot_token (id, code, status, voter_id, station_level,
			activated_at, voting_started_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, code, status, boundVoter, station, activatedAt, votingStartedAt, usedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test token: %v", err)
	}
	return code
}

// SetTokenActivatedAt backdates a token's activation for sweeper tests.
func SetTokenActivatedAt(t *testing.T, d *sql.DB, code string, at time.Time) {
	t.Helper()
	_, err := d.Exec(`UPDATE ballot_token SET activated_at = $1 WHERE code = $2`, at, code)
	if err != nil {
		t.Fatalf("Failed to backdate token: %v", err)
	}
}

// CreateTestParty inserts a party and returns its ID.
func CreateTestParty(t *testing.T, d *sql.DB, name string, number int) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	_, err := d.Exec(`
		INSERT INTO party (id, name, number, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, name, number, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test party: %v", err)
	}
	return id
}

// CreateTestOperator inserts an operator with a known password and an active
// session, returning the operator ID and session token.
func CreateTestOperator(t *testing.T, d *sql.DB, username, password, role string) (operatorID, sessionToken string) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	operatorID, _ = auth.GenerateID(16)
	_, err = d.Exec(`
		INSERT INTO operator (id, username, password_hash, role, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, operatorID, username, hash, role, username, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test operator: %v", err)
	}

	sessionToken, err = auth.GenerateSessionToken()
	if err != nil {
		t.Fatalf("Failed to generate session token: %v", err)
	}
	_, err = d.Exec(`
		INSERT INTO operator_session (token, operator_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, sessionToken, operatorID, time.Now().Add(time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return operatorID, sessionToken
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AuthHeader builds the Authorization header map for a session token.
func AuthHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
