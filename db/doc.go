// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides database schema creation.

# Schema

Nine tables back the service:

  - voter: eligible-voter roster with terminal vote_status
  - ballot_token: one-time credentials with the five-state lifecycle
  - vote: anonymous vote records (no voter column, token_id UNIQUE)
  - party: candidate parties
  - election_setting: election status/schedule key-value store
  - rate_limit: per-(identifier, action) attempt counters
  - operator / operator_session: poll-worker logins
  - print_log: token batch audit trail
  - activity_log: administrative action trail

# Usage

	if err := db.CreateSchema(dbConn); err != nil {
	    // handle error
	}

The schema uses CREATE TABLE IF NOT EXISTS, so it's safe to run at every
startup. The same DDL runs on PostgreSQL (lib/pq) and SQLite
(modernc.org/sqlite); ids are TEXT values generated in Go and timestamps are
written by the application, never by database defaults, so both drivers store
identical shapes.
*/
package db
