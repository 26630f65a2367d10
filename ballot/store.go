// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"database/sql"
	"time"

	"github.com/pattarapol/smartvote/auth"
	"github.com/pattarapol/smartvote/election"
	"github.com/pattarapol/smartvote/models"
)

// Store owns the ballot-token lifecycle:
//
//	inactive -> activated -> voting -> used
//	             \-> expired (sweeper timeout)
//
// Every transition is a single conditional UPDATE anchored on the prior
// state. Success means exactly one row matched; a caller that loses a race
// sees zero rows, re-reads the token, and gets a typed reason. That row-count
// check is the only concurrency primitive - no locks, no queues.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SweepResult reports one pass of the expiry sweeper.
type SweepResult struct {
	ExpiredCount   int
	AbsentVoterIDs []string
}

// Activate moves an inactive token to activated and binds it to a voter.
// A station level supplied by the operator is stamped onto the token here and
// overrides the one printed on the batch; an empty station keeps the printed
// binding. Scans check against the stored value later.
//
// The conditional update also asserts that no other token currently holds
// this voter in activated or voting, so two operators activating different
// tokens for the same voter cannot both succeed.
func (s *Store) Activate(st election.Status, now time.Time, code, voterID, operatorID, stationLevel string) error {
	if !st.Open() {
		return &ElectionClosedError{OpensAt: st.OpensAt}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("activate", err)
	}
	defer tx.Rollback()

	// Voter-side preconditions, checked first for precise reasons
	var voteStatus sql.NullString
	err = tx.QueryRow(`SELECT vote_status FROM voter WHERE voter_id = $1`, voterID).Scan(&voteStatus)
	if err == sql.ErrNoRows {
		return ErrVoterNotFound
	}
	if err != nil {
		return storageErr("activate", err)
	}
	if voteStatus.Valid {
		if voteStatus.String == models.VoterAbsent {
			return ErrAlreadyAbsent
		}
		return ErrAlreadyVoted
	}

	res, err := tx.Exec(`
		UPDATE ballot_token
		SET status = 'activated', voter_id = $1, station_level = COALESCE($2, station_level), activated_by = $3, activated_at = $4
		WHERE code = $5 AND status = 'inactive'
		  AND NOT EXISTS (
			SELECT 1 FROM ballot_token live
			WHERE live.voter_id = $6 AND live.status IN ('activated', 'voting')
		  )
	`, voterID, nullIfEmpty(stationLevel), operatorID, now, code, voterID)
	if err != nil {
		return storageErr("activate", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("activate", err)
	}
	if affected == 0 {
		// Lost the race or bad input; re-read to report the real reason
		var current string
		err := tx.QueryRow(`SELECT status FROM ballot_token WHERE code = $1`, code).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrTokenNotFound
		}
		if err != nil {
			return storageErr("activate", err)
		}
		if current != models.TokenInactive {
			return &InvalidStateError{Current: current}
		}
		return ErrVoterHasActiveToken
	}

	if err := tx.Commit(); err != nil {
		return storageErr("activate", err)
	}
	return nil
}

// Scan moves an activated token to voting when a voter presents it at a
// kiosk. An empty stationLevel skips the station check; a token with no
// recorded station accepts any kiosk.
func (s *Store) Scan(st election.Status, now time.Time, code, stationLevel string) (*models.BallotToken, error) {
	if !st.Open() {
		return nil, &ElectionClosedError{OpensAt: st.OpensAt}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, storageErr("scan", err)
	}
	defer tx.Rollback()

	tok, err := readToken(tx, code)
	if err != nil {
		return nil, err
	}

	if stationLevel != "" && tok.StationLevel != nil && *tok.StationLevel != stationLevel {
		return nil, &StationMismatchError{TokenLevel: *tok.StationLevel, ScanLevel: stationLevel}
	}

	res, err := tx.Exec(`
		UPDATE ballot_token
		SET status = 'voting', voting_started_at = $1
		WHERE code = $2 AND status = 'activated'
	`, now, code)
	if err != nil {
		return nil, storageErr("scan", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr("scan", err)
	}
	if affected == 0 {
		var current string
		err := tx.QueryRow(`SELECT status FROM ballot_token WHERE code = $1`, code).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		if err != nil {
			return nil, storageErr("scan", err)
		}
		return nil, &InvalidStateError{Current: current}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("scan", err)
	}

	tok.Status = models.TokenVoting
	tok.VotingStartedAt = &now
	return tok, nil
}

// FinalizeVote is the anonymization link breaker: in one transaction it
// captures the voter id while the token is still in voting, moves the token
// voting -> used while clearing voter_id in the same write, marks the voter
// voted, and inserts the anonymous vote row. After commit no stored row
// links the vote back to the voter; the captured id lives only in this
// function's frame.
func (s *Store) FinalizeVote(now time.Time, code string, partyID *string, abstain bool) (*models.Vote, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, storageErr("finalize", err)
	}
	defer tx.Rollback()

	if !abstain {
		if partyID == nil {
			return nil, ErrPartyNotFound
		}
		var one int
		err := tx.QueryRow(`SELECT 1 FROM party WHERE id = $1`, *partyID).Scan(&one)
		if err == sql.ErrNoRows {
			return nil, ErrPartyNotFound
		}
		if err != nil {
			return nil, storageErr("finalize", err)
		}
	}

	tok, err := readToken(tx, code)
	if err != nil {
		return nil, err
	}
	if tok.Status != models.TokenVoting {
		return nil, &InvalidStateError{Current: tok.Status}
	}

	// While status stays 'voting' nothing else writes voter_id, so the value
	// captured above is the one this update clears.
	res, err := tx.Exec(`
		UPDATE ballot_token
		SET status = 'used', used_at = $1, voter_id = NULL
		WHERE code = $2 AND status = 'voting'
	`, now, code)
	if err != nil {
		return nil, storageErr("finalize", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr("finalize", err)
	}
	if affected == 0 {
		var current string
		err := tx.QueryRow(`SELECT status FROM ballot_token WHERE code = $1`, code).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		if err != nil {
			return nil, storageErr("finalize", err)
		}
		return nil, &InvalidStateError{Current: current}
	}

	if tok.VoterID != nil {
		_, err = tx.Exec(`
			UPDATE voter
			SET vote_status = 'voted', voted_at = $1
			WHERE voter_id = $2 AND vote_status IS NULL
		`, now, *tok.VoterID)
		if err != nil {
			return nil, storageErr("finalize", err)
		}
	}

	voteID, err := auth.GenerateID(16)
	if err != nil {
		return nil, storageErr("finalize", err)
	}

	stationLevel := "unknown"
	if tok.StationLevel != nil {
		stationLevel = *tok.StationLevel
	}

	var votePartyID *string
	isAbstain := 0
	if abstain {
		isAbstain = 1
	} else {
		votePartyID = partyID
	}

	_, err = tx.Exec(`
		INSERT INTO vote (id, party_id, station_level, token_id, is_abstain, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, voteID, votePartyID, stationLevel, tok.ID, isAbstain, now)
	if err != nil {
		return nil, storageErr("finalize", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("finalize", err)
	}

	return &models.Vote{
		ID:           voteID,
		PartyID:      votePartyID,
		StationLevel: stationLevel,
		TokenID:      tok.ID,
		IsAbstain:    abstain,
		CreatedAt:    now,
	}, nil
}

// Sweep forces tokens stuck in activated past the timeout to expired and
// marks their voters absent. Each token is handled in its own transaction;
// a token whose conditional update matches zero rows lost a race to a kiosk
// scan and is skipped, not failed - the voting-path flows own it now.
func (s *Store) Sweep(now time.Time, timeout time.Duration) (SweepResult, error) {
	cutoff := now.Add(-timeout)
	var result SweepResult

	rows, err := s.db.Query(`
		SELECT id, voter_id, activated_at
		FROM ballot_token
		WHERE status = 'activated'
	`)
	if err != nil {
		return result, storageErr("sweep", err)
	}
	defer rows.Close()

	type candidate struct {
		id      string
		voterID sql.NullString
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var activatedAt time.Time
		if err := rows.Scan(&c.id, &c.voterID, &activatedAt); err != nil {
			return result, storageErr("sweep", err)
		}
		// Strictly past the timeout: a token activated at T expires only
		// after T+timeout, never at it.
		if activatedAt.Before(cutoff) {
			candidates = append(candidates, c)
		}
	}
	if err := rows.Err(); err != nil {
		return result, storageErr("sweep", err)
	}

	for _, c := range candidates {
		expired, err := s.expireOne(now, c.id, c.voterID)
		if err != nil {
			return result, err
		}
		if expired {
			result.ExpiredCount++
			if c.voterID.Valid {
				result.AbsentVoterIDs = append(result.AbsentVoterIDs, c.voterID.String)
			}
		}
	}

	return result, nil
}

func (s *Store) expireOne(now time.Time, tokenID string, voterID sql.NullString) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, storageErr("sweep", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE ballot_token
		SET status = 'expired', voter_id = NULL
		WHERE id = $1 AND status = 'activated'
	`, tokenID)
	if err != nil {
		return false, storageErr("sweep", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("sweep", err)
	}
	if affected == 0 {
		// A kiosk scan won the race; leave the token to the voting path.
		return false, nil
	}

	if voterID.Valid {
		_, err = tx.Exec(`
			UPDATE voter
			SET vote_status = 'absent'
			WHERE voter_id = $1 AND vote_status IS NULL
		`, voterID.String)
		if err != nil {
			return false, storageErr("sweep", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("sweep", err)
	}
	return true, nil
}

// GetByCode returns the token row for a code, or ErrTokenNotFound.
func (s *Store) GetByCode(code string) (*models.BallotToken, error) {
	return readTokenQuerier(s.db, code)
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func readToken(tx *sql.Tx, code string) (*models.BallotToken, error) {
	return readTokenQuerier(tx, code)
}

func readTokenQuerier(q querier, code string) (*models.BallotToken, error) {
	var tok models.BallotToken
	err := q.QueryRow(`
		SELECT id, code, status, voter_id, station_level, activated_by,
		       print_batch_id, activated_at, voting_started_at, used_at, created_at
		FROM ballot_token
		WHERE code = $1
	`, code).Scan(
		&tok.ID, &tok.Code, &tok.Status, &tok.VoterID, &tok.StationLevel,
		&tok.ActivatedBy, &tok.PrintBatchID, &tok.ActivatedAt,
		&tok.VotingStartedAt, &tok.UsedAt, &tok.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, storageErr("read token", err)
	}
	return &tok, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
