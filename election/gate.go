// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pattarapol/smartvote/models"
)

// Setting keys in the election_setting table
const (
	KeyStatus    = "election_status"
	KeyOpenTime  = "election_open_time"
	KeyCloseTime = "election_close_time"
)

// Schedule values accept full RFC 3339 or the zone-less form emitted by
// datetime-local inputs; the latter is interpreted in the gate's fixed zone.
const localTimeLayout = "2006-01-02T15:04"

// Status is the resolved election state at a single instant. Handlers resolve
// it once per request and pass the value into every transition call, so the
// token state machine never reads a live clock.
type Status struct {
	Effective string     // open or closed
	Raw       string     // open, closed, or scheduled
	OpensAt   *time.Time // scheduled open, if set
	ClosesAt  *time.Time // scheduled close, if set
}

// Open reports whether transitions gated on the schedule may proceed.
func (s Status) Open() bool {
	return s.Effective == models.ElectionOpen
}

// Gate resolves the election's effective status against wall-clock time.
// The timezone is a fixed configured offset, never the host's local zone,
// so a misconfigured server cannot shift the election window.
type Gate struct {
	db  *sql.DB
	loc *time.Location
}

func NewGate(db *sql.DB, utcOffsetHours int) *Gate {
	name := fmt.Sprintf("UTC%+d", utcOffsetHours)
	return &Gate{
		db:  db,
		loc: time.FixedZone(name, utcOffsetHours*3600),
	}
}

// Resolve computes the effective status at the given instant. Pure read.
//
// A persisted status of "open" or "closed" is returned verbatim. "scheduled"
// resolves open iff open_time <= now < close_time; a missing close_time means
// no upper bound, a missing open_time means closed. An absent status row
// means the election has never been configured and resolves closed.
func (g *Gate) Resolve(now time.Time) (Status, error) {
	raw, ok, err := g.setting(KeyStatus)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		raw = models.ElectionClosed
	}

	st := Status{Effective: raw, Raw: raw}

	if openVal, ok, err := g.setting(KeyOpenTime); err != nil {
		return Status{}, err
	} else if ok {
		t, err := g.parseTime(openVal)
		if err != nil {
			return Status{}, fmt.Errorf("bad %s value: %w", KeyOpenTime, err)
		}
		st.OpensAt = &t
	}
	if closeVal, ok, err := g.setting(KeyCloseTime); err != nil {
		return Status{}, err
	} else if ok {
		t, err := g.parseTime(closeVal)
		if err != nil {
			return Status{}, fmt.Errorf("bad %s value: %w", KeyCloseTime, err)
		}
		st.ClosesAt = &t
	}

	if raw == models.ElectionScheduled {
		st.Effective = models.ElectionClosed
		if st.OpensAt != nil && !now.Before(*st.OpensAt) {
			if st.ClosesAt == nil || st.ClosesAt.After(now) {
				st.Effective = models.ElectionOpen
			}
		}
	}

	return st, nil
}

// SetStatus updates the persisted status and schedule. Nil fields are left
// untouched; an empty time string clears that bound.
func (g *Gate) SetStatus(req models.SetElectionStatusRequest, now time.Time) error {
	if req.Status != nil {
		switch *req.Status {
		case models.ElectionOpen, models.ElectionClosed, models.ElectionScheduled:
		default:
			return fmt.Errorf("unknown election status %q", *req.Status)
		}
		if err := g.put(KeyStatus, *req.Status, now); err != nil {
			return err
		}
	}
	if req.OpenTime != nil {
		if err := g.putTime(KeyOpenTime, *req.OpenTime, now); err != nil {
			return err
		}
	}
	if req.CloseTime != nil {
		if err := g.putTime(KeyCloseTime, *req.CloseTime, now); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) putTime(key, value string, now time.Time) error {
	if value == "" {
		_, err := g.db.Exec(`DELETE FROM election_setting WHERE key = $1`, key)
		return err
	}
	if _, err := g.parseTime(value); err != nil {
		return fmt.Errorf("bad %s value: %w", key, err)
	}
	return g.put(key, value, now)
}

func (g *Gate) put(key, value string, now time.Time) error {
	_, err := g.db.Exec(`
		INSERT INTO election_setting (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now)
	return err
}

func (g *Gate) setting(key string) (string, bool, error) {
	var value string
	err := g.db.QueryRow(`SELECT value FROM election_setting WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (g *Gate) parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localTimeLayout, value, g.loc)
}
