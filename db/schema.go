// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL sticks to the portable subset shared by PostgreSQL and SQLite:
// TEXT primary keys generated in Go, no serial columns, no JSONB.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Voters (roster, imported in bulk)
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL UNIQUE,
    prefix TEXT,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    level TEXT NOT NULL,
    room TEXT,
    vote_status TEXT CHECK (vote_status IN ('voted', 'absent')),
    voted_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_voter_voter_id ON voter(voter_id);
CREATE INDEX IF NOT EXISTS idx_voter_level ON voter(level);

-- Ballot tokens. voter_id is non-null only while status is activated or
-- voting; it is cleared in the same conditional update that moves the token
-- into a terminal state.
CREATE TABLE IF NOT EXISTS ballot_token (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'inactive' CHECK (status IN ('inactive', 'activated', 'voting', 'used', 'expired')),
    voter_id TEXT,
    station_level TEXT,
    activated_by TEXT,
    print_batch_id TEXT,
    activated_at TIMESTAMP,
    voting_started_at TIMESTAMP,
    used_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ballot_token_code ON ballot_token(code);
CREATE INDEX IF NOT EXISTS idx_ballot_token_status ON ballot_token(status);
CREATE INDEX IF NOT EXISTS idx_ballot_token_batch ON ballot_token(print_batch_id);

-- Votes. Anonymous by construction: no voter column exists. The UNIQUE
-- constraint on token_id backs the no-double-vote property.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    party_id TEXT,
    station_level TEXT NOT NULL,
    token_id TEXT NOT NULL UNIQUE REFERENCES ballot_token(id),
    is_abstain INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_party_id ON vote(party_id);
CREATE INDEX IF NOT EXISTS idx_vote_station_level ON vote(station_level);

-- Parties
CREATE TABLE IF NOT EXISTS party (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    number INTEGER NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

-- Election settings (election_status, election_open_time, election_close_time)
CREATE TABLE IF NOT EXISTS election_setting (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Rate-limit counters, keyed by (identifier, action). window_start is unix
-- seconds so the rollover comparison is exact across drivers.
CREATE TABLE IF NOT EXISTS rate_limit (
    identifier TEXT NOT NULL,
    action TEXT NOT NULL,
    attempts INTEGER NOT NULL,
    window_start INTEGER NOT NULL,
    PRIMARY KEY (identifier, action)
);

-- Poll-worker and admin accounts
CREATE TABLE IF NOT EXISTS operator (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'staff' CHECK (role IN ('admin', 'staff')),
    display_name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS operator_session (
    token TEXT PRIMARY KEY,
    operator_id TEXT NOT NULL REFERENCES operator(id) ON DELETE CASCADE,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operator_session_operator ON operator_session(operator_id);

-- Print audit trail for token batches
CREATE TABLE IF NOT EXISTS print_log (
    batch_id TEXT PRIMARY KEY,
    token_count INTEGER NOT NULL,
    station_level TEXT,
    printed_by TEXT NOT NULL,
    printed_at TIMESTAMP NOT NULL
);

-- Administrative action trail. The username is denormalized so entries
-- survive operator deletion.
CREATE TABLE IF NOT EXISTS activity_log (
    id TEXT PRIMARY KEY,
    operator_id TEXT,
    username TEXT NOT NULL,
    action TEXT NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_log_created ON activity_log(created_at);
`
