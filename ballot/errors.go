// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"errors"
	"time"
)

// Expected, user-facing outcomes. Handlers map each to a stable HTTP status
// and reason code; none of them are logged as server errors.
var (
	ErrTokenNotFound       = errors.New("ballot token not found")
	ErrVoterNotFound       = errors.New("voter not found")
	ErrPartyNotFound       = errors.New("party not found")
	ErrAlreadyVoted        = errors.New("voter has already voted")
	ErrAlreadyAbsent       = errors.New("voter was marked absent")
	ErrVoterHasActiveToken = errors.New("voter already holds an activated token")
	ErrBatchInUse          = errors.New("batch contains tokens that left the inactive state")
)

// InvalidStateError reports a transition attempted from a state that does not
// allow it. Current is the state observed after the conditional update
// matched zero rows, so the caller can say exactly why ("already used" vs
// "not yet activated").
type InvalidStateError struct {
	Current string
}

func (e *InvalidStateError) Error() string {
	return "token is " + e.Current
}

// ElectionClosedError rejects a transition while the election is closed.
// OpensAt carries the scheduled reopening time when one is known.
type ElectionClosedError struct {
	OpensAt *time.Time
}

func (e *ElectionClosedError) Error() string {
	if e.OpensAt != nil {
		return "election is closed until " + e.OpensAt.Format(time.RFC3339)
	}
	return "election is closed"
}

// StationMismatchError rejects a scan from a kiosk outside the polling group
// the token was activated for.
type StationMismatchError struct {
	TokenLevel string
	ScanLevel  string
}

func (e *StationMismatchError) Error() string {
	return "token is bound to station " + e.TokenLevel + ", scanned at " + e.ScanLevel
}

// StorageError wraps a write that did not commit. The conditional-update
// design makes the caller's retry safe: a transition that already applied
// reports InvalidStateError on the retry instead of applying twice.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure during " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
