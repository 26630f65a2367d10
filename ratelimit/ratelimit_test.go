// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pattarapol/smartvote/db"
)

// Local DB setup; testutil would pull in packages this one feeds.
func setupDB(t *testing.T) *sql.DB {
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

func TestAllow(t *testing.T) {
	window := 5 * time.Minute

	t.Run("allows up to the limit then blocks", func(t *testing.T) {
		d := setupDB(t)
		defer d.Close()
		limiter := NewLimiter(d)

		now := time.Now()
		const max = 3

		for i := 0; i < max; i++ {
			decision, err := limiter.Allow("10.0.0.1", ActionValidate, max, window, now)
			if err != nil {
				t.Fatalf("Allow failed: %v", err)
			}
			if !decision.Allowed {
				t.Fatalf("Attempt %d should be allowed", i+1)
			}
			if want := max - i - 1; decision.Remaining != want {
				t.Errorf("Attempt %d: expected %d remaining, got %d", i+1, want, decision.Remaining)
			}
		}

		decision, err := limiter.Allow("10.0.0.1", ActionValidate, max, window, now)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if decision.Allowed {
			t.Error("Attempt past the limit should be blocked")
		}
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		d := setupDB(t)
		defer d.Close()
		limiter := NewLimiter(d)

		now := time.Now()
		const max = 2

		for i := 0; i < max; i++ {
			if _, err := limiter.Allow("10.0.0.1", ActionLogin, max, window, now); err != nil {
				t.Fatal(err)
			}
		}
		if decision, _ := limiter.Allow("10.0.0.1", ActionLogin, max, window, now); decision.Allowed {
			t.Fatal("Expected block at the limit")
		}

		later := now.Add(window + time.Second)
		decision, err := limiter.Allow("10.0.0.1", ActionLogin, max, window, later)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !decision.Allowed {
			t.Error("Expected a fresh window after expiry")
		}
		if decision.Remaining != max-1 {
			t.Errorf("Expected %d remaining in fresh window, got %d", max-1, decision.Remaining)
		}
	})

	t.Run("identifiers are isolated", func(t *testing.T) {
		d := setupDB(t)
		defer d.Close()
		limiter := NewLimiter(d)

		now := time.Now()
		const max = 1

		if decision, _ := limiter.Allow("10.0.0.1", ActionValidate, max, window, now); !decision.Allowed {
			t.Fatal("First identifier should be allowed")
		}
		if decision, _ := limiter.Allow("10.0.0.1", ActionValidate, max, window, now); decision.Allowed {
			t.Fatal("First identifier should now be blocked")
		}
		if decision, _ := limiter.Allow("10.0.0.2", ActionValidate, max, window, now); !decision.Allowed {
			t.Error("Second identifier should have its own budget")
		}
	})

	t.Run("actions are isolated", func(t *testing.T) {
		d := setupDB(t)
		defer d.Close()
		limiter := NewLimiter(d)

		now := time.Now()
		const max = 1

		if decision, _ := limiter.Allow("op-1", ActionActivate, max, window, now); !decision.Allowed {
			t.Fatal("First action should be allowed")
		}
		if decision, _ := limiter.Allow("op-1", ActionActivate, max, window, now); decision.Allowed {
			t.Fatal("First action should now be blocked")
		}
		if decision, _ := limiter.Allow("op-1", ActionLogin, max, window, now); !decision.Allowed {
			t.Error("A different action should have its own budget")
		}
	})

	t.Run("counter survives a limiter restart", func(t *testing.T) {
		d := setupDB(t)
		defer d.Close()

		now := time.Now()
		const max = 2

		first := NewLimiter(d)
		for i := 0; i < max; i++ {
			if _, err := first.Allow("10.0.0.1", ActionValidate, max, window, now); err != nil {
				t.Fatal(err)
			}
		}

		// A new limiter over the same store sees the spent budget
		second := NewLimiter(d)
		decision, err := second.Allow("10.0.0.1", ActionValidate, max, window, now)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if decision.Allowed {
			t.Error("Expected the persisted counter to still block")
		}
	})
}
