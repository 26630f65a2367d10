// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pattarapol/smartvote/models"
	"github.com/pattarapol/smartvote/testutil"
)

func TestActivateEndpoint(t *testing.T) {
	t.Run("activates a token for a checked-in voter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)
		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenInactive, "", "")
		_, token := testutil.CreateTestOperator(t, db, "staff1", "hunter2pass", models.RoleStaff)

		req := testutil.MakeRequest("POST", "/tokens/activate",
			models.ActivateTokenRequest{Code: code, VoterID: "1001", StationLevel: "M1"},
			testutil.AuthHeader(token))
		w := httptest.NewRecorder()
		h.Activate(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ActivateTokenResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Code != code {
			t.Errorf("Expected code %s, got %s", code, resp.Code)
		}
		if !strings.Contains(resp.Warning, "expires") {
			t.Errorf("Expected an expiry warning, got %q", resp.Warning)
		}
	})

	t.Run("requires a logged-in operator", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		req := testutil.MakeRequest("POST", "/tokens/activate",
			models.ActivateTokenRequest{Code: "RSL-AB12-CD345678", VoterID: "1001"}, nil)
		w := httptest.NewRecorder()
		h.Activate(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("normalizes hand-entered codes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)
		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenInactive, "", "")
		_, token := testutil.CreateTestOperator(t, db, "staff1", "hunter2pass", models.RoleStaff)

		req := testutil.MakeRequest("POST", "/tokens/activate",
			models.ActivateTokenRequest{Code: "  " + strings.ToLower(code) + "  ", VoterID: "1001"},
			testutil.AuthHeader(token))
		w := httptest.NewRecorder()
		h.Activate(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("rejects malformed codes before any lookup", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		_, token := testutil.CreateTestOperator(t, db, "staff1", "hunter2pass", models.RoleStaff)

		req := testutil.MakeRequest("POST", "/tokens/activate",
			models.ActivateTokenRequest{Code: "not-a-code", VoterID: "1001"},
			testutil.AuthHeader(token))
		w := httptest.NewRecorder()
		h.Activate(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Reason != models.ReasonBadRequest {
			t.Errorf("Expected reason bad_request, got %s", resp.Reason)
		}
	})

	t.Run("surfaces already-voted as a conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)
		testutil.CreateTestVoter(t, db, "1001")
		if _, err := db.Exec(`UPDATE voter SET vote_status = 'voted' WHERE voter_id = '1001'`); err != nil {
			t.Fatal(err)
		}
		code := testutil.CreateTestToken(t, db, models.TokenInactive, "", "")
		_, token := testutil.CreateTestOperator(t, db, "staff1", "hunter2pass", models.RoleStaff)

		req := testutil.MakeRequest("POST", "/tokens/activate",
			models.ActivateTokenRequest{Code: code, VoterID: "1001"},
			testutil.AuthHeader(token))
		w := httptest.NewRecorder()
		h.Activate(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Reason != models.ReasonAlreadyVoted {
			t.Errorf("Expected reason already_voted, got %s", resp.Reason)
		}
	})

	t.Run("refuses while the election is closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		// No election_setting rows: the gate resolves closed
		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenInactive, "", "")
		_, token := testutil.CreateTestOperator(t, db, "staff1", "hunter2pass", models.RoleStaff)

		req := testutil.MakeRequest("POST", "/tokens/activate",
			models.ActivateTokenRequest{Code: code, VoterID: "1001"},
			testutil.AuthHeader(token))
		w := httptest.NewRecorder()
		h.Activate(w, req)

		testutil.AssertStatus(t, w, http.StatusForbidden)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Reason != models.ReasonElectionClosed {
			t.Errorf("Expected reason election_closed, got %s", resp.Reason)
		}
	})
}

func TestValidateEndpoint(t *testing.T) {
	t.Run("moves a scanned token into voting", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)
		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenActivated, "1001", "M1")

		req := testutil.MakeRequest("POST", "/tokens/validate",
			models.ScanTokenRequest{Code: code, StationLevel: "M1"}, nil)
		w := httptest.NewRecorder()
		h.Validate(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ScanTokenResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Code != code {
			t.Errorf("Expected code %s, got %s", code, resp.Code)
		}
	})

	t.Run("reads the station from the header when the body omits it", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)
		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenActivated, "1001", "M1")

		req := testutil.MakeRequest("POST", "/tokens/validate",
			models.ScanTokenRequest{Code: code},
			map[string]string{"X-Station-Level": "M2"})
		w := httptest.NewRecorder()
		h.Validate(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Reason != models.ReasonStationMismatch {
			t.Errorf("Expected reason station_mismatch, got %s", resp.Reason)
		}
	})

	t.Run("reports the token's actual state on rejection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)
		code := testutil.CreateTestToken(t, db, models.TokenUsed, "", "")

		req := testutil.MakeRequest("POST", "/tokens/validate",
			models.ScanTokenRequest{Code: code}, nil)
		w := httptest.NewRecorder()
		h.Validate(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Reason != models.ReasonInvalidState {
			t.Errorf("Expected reason invalid_state, got %s", resp.Reason)
		}
		if !strings.Contains(resp.Message, "already been used") {
			t.Errorf("Expected a used-ballot message, got %q", resp.Message)
		}
	})

	t.Run("unknown code is a 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewTokenHandler(db, testutil.GetTestConfig())

		testutil.OpenElection(t, db)

		req := testutil.MakeRequest("POST", "/tokens/validate",
			models.ScanTokenRequest{Code: "RSL-AB12-CD345678"}, nil)
		w := httptest.NewRecorder()
		h.Validate(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("repeated scans from one kiosk hit the rate limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		cfg := testutil.GetTestConfig()
		h := NewTokenHandler(db, cfg)

		testutil.OpenElection(t, db)

		var lastCode int
		for i := 0; i < cfg.RateLimitMaxAttempts+1; i++ {
			req := testutil.MakeRequest("POST", "/tokens/validate",
				models.ScanTokenRequest{Code: "RSL-AB12-CD345678"}, nil)
			req.RemoteAddr = "10.0.0.7:4444"
			w := httptest.NewRecorder()
			h.Validate(w, req)
			lastCode = w.Code
		}

		if lastCode != http.StatusTooManyRequests {
			t.Errorf("Expected 429 after exhausting attempts, got %d", lastCode)
		}
	})
}

func TestGetTokenEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	h := NewTokenHandler(db, testutil.GetTestConfig())

	testutil.CreateTestVoter(t, db, "1001")
	code := testutil.CreateTestToken(t, db, models.TokenActivated, "1001", "M1")
	_, token := testutil.CreateTestOperator(t, db, "staff1", "hunter2pass", models.RoleStaff)

	t.Run("returns the token without the voter link", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/tokens/"+code, nil, testutil.AuthHeader(token))
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		h.GetToken(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		// The serialized token must never name the voter
		if strings.Contains(w.Body.String(), "1001") {
			t.Errorf("Token JSON leaks the voter ID: %s", w.Body.String())
		}

		var tok models.BallotToken
		testutil.AssertJSON(t, w, &tok)
		if tok.Status != models.TokenActivated {
			t.Errorf("Expected activated, got %s", tok.Status)
		}
	})

	t.Run("requires an operator", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/tokens/"+code, nil, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		h.GetToken(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
