// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"database/sql"
	"fmt"
	"time"
)

// Action names used as the second half of a counter key.
const (
	ActionLogin    = "login"
	ActionActivate = "activate"
	ActionValidate = "validate"
)

// Limiter is a persisted per-(identifier, action) attempt counter. Counters
// live in the database rather than process memory so multiple instances
// behind one store share the same budget and a restart does not reset it.
type Limiter struct {
	db *sql.DB
}

func NewLimiter(db *sql.DB) *Limiter {
	return &Limiter{db: db}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
}

// Allow records an attempt and reports whether it is within budget.
// Attempts older than the window are discarded by resetting the counter.
// The increment is conditional on attempts < max, so concurrent callers can
// slightly under-count but never push the counter past the limit - the
// contract is "never unbounded", not exact accounting.
func (l *Limiter) Allow(identifier, action string, maxAttempts int, window time.Duration, now time.Time) (Decision, error) {
	windowStart := now.Unix()
	cutoff := now.Add(-window).Unix()

	// First attempt for this key
	res, err := l.db.Exec(`
		INSERT INTO rate_limit (identifier, action, attempts, window_start)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (identifier, action) DO NOTHING
	`, identifier, action, windowStart)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit insert: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Decision{}, fmt.Errorf("rate limit insert: %w", err)
	} else if n == 1 {
		return Decision{Allowed: true, Remaining: maxAttempts - 1}, nil
	}

	// Window expired: roll over and start a fresh count
	res, err = l.db.Exec(`
		UPDATE rate_limit
		SET attempts = 1, window_start = $1
		WHERE identifier = $2 AND action = $3 AND window_start <= $4
	`, windowStart, identifier, action, cutoff)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit rollover: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Decision{}, fmt.Errorf("rate limit rollover: %w", err)
	} else if n == 1 {
		return Decision{Allowed: true, Remaining: maxAttempts - 1}, nil
	}

	// Within the window: increment only while under the limit
	res, err = l.db.Exec(`
		UPDATE rate_limit
		SET attempts = attempts + 1
		WHERE identifier = $1 AND action = $2 AND attempts < $3
	`, identifier, action, maxAttempts)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit increment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Decision{}, fmt.Errorf("rate limit increment: %w", err)
	} else if n == 0 {
		return Decision{Allowed: false, Remaining: 0}, nil
	}

	var attempts int
	err = l.db.QueryRow(`
		SELECT attempts FROM rate_limit WHERE identifier = $1 AND action = $2
	`, identifier, action).Scan(&attempts)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit read: %w", err)
	}

	remaining := maxAttempts - attempts
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}
