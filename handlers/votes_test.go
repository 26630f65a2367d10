// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pattarapol/smartvote/models"
	"github.com/pattarapol/smartvote/testutil"
)

func TestSubmitVote(t *testing.T) {
	t.Run("records a party vote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		partyID := testutil.CreateTestParty(t, db, "Red", 1)
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "M1")

		req := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, PartyID: &partyID}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM vote WHERE party_id = $1`, partyID).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("Expected 1 vote for the party, got %d", count)
		}
	})

	t.Run("records an abstain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "")

		req := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, Abstain: true}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var abstains int
		if err := db.QueryRow(`SELECT COUNT(*) FROM vote WHERE is_abstain = 1`).Scan(&abstains); err != nil {
			t.Fatal(err)
		}
		if abstains != 1 {
			t.Errorf("Expected 1 abstain, got %d", abstains)
		}
	})

	t.Run("succeeds even while the election is closed", func(t *testing.T) {
		// A voter already in the booth finishes their session; closing the
		// schedule mid-vote never voids a scanned ballot.
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		partyID := testutil.CreateTestParty(t, db, "Red", 1)
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "")

		req := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, PartyID: &partyID}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("requires a selection or an abstain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "")

		req := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("rejects a party selection combined with abstain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		partyID := testutil.CreateTestParty(t, db, "Red", 1)
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "")

		req := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, PartyID: &partyID, Abstain: true}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("a used token cannot vote again", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		partyID := testutil.CreateTestParty(t, db, "Red", 1)
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "")

		first := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, PartyID: &partyID}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, first)
		testutil.AssertStatus(t, w, http.StatusOK)

		second := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, PartyID: &partyID}, nil)
		w = httptest.NewRecorder()
		h.Submit(w, second)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Reason != models.ReasonInvalidState {
			t.Errorf("Expected reason invalid_state, got %s", resp.Reason)
		}
	})

	t.Run("rejects an unknown party", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer db.Close()
		h := NewVoteHandler(db, testutil.GetTestConfig())

		testutil.CreateTestVoter(t, db, "1001")
		code := testutil.CreateTestToken(t, db, models.TokenVoting, "1001", "")

		bogus := "no-such-party"
		req := testutil.MakeRequest("POST", "/votes",
			models.SubmitVoteRequest{Code: code, PartyID: &bogus}, nil)
		w := httptest.NewRecorder()
		h.Submit(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}
