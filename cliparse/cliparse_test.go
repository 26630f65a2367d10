package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	t.Run("flags take precedence", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("DATABASE_URL", "env.db")

		cfg, err := ParseFlags([]string{"-p", "4000", "-d", "flag.db"})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 4000 {
			t.Errorf("Expected port 4000 from flag, got %d", cfg.Port)
		}
		if cfg.DatabaseURL != "flag.db" {
			t.Errorf("Expected flag.db, got %s", cfg.DatabaseURL)
		}
	})

	t.Run("env fills in missing flags", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("DATABASE_URL", "env.db")
		t.Setenv("TIMEZONE_OFFSET_HOURS", "3")

		cfg, err := ParseFlags(nil)
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 8080 {
			t.Errorf("Expected port 8080 from env, got %d", cfg.Port)
		}
		if cfg.TimezoneOffsetHours != 3 {
			t.Errorf("Expected offset 3 from env, got %d", cfg.TimezoneOffsetHours)
		}
	})

	t.Run("defaults apply last", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "test.db")

		cfg, err := ParseFlags(nil)
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 3372 {
			t.Errorf("Expected default port 3372, got %d", cfg.Port)
		}
		if cfg.DatabaseType != "sqlite" {
			t.Errorf("Expected default sqlite, got %s", cfg.DatabaseType)
		}
		if cfg.TimezoneOffsetHours != 7 {
			t.Errorf("Expected default offset 7, got %d", cfg.TimezoneOffsetHours)
		}
		if cfg.TokenTimeoutMinutes != 30 {
			t.Errorf("Expected default timeout 30, got %d", cfg.TokenTimeoutMinutes)
		}
		if cfg.RateLimitMaxAttempts != 10 {
			t.Errorf("Expected default 10 attempts, got %d", cfg.RateLimitMaxAttempts)
		}
		if cfg.RateLimitWindowMinutes != 5 {
			t.Errorf("Expected default 5 minute window, got %d", cfg.RateLimitWindowMinutes)
		}
		if cfg.SessionTTLHours != 12 {
			t.Errorf("Expected default 12 hour sessions, got %d", cfg.SessionTTLHours)
		}
	})

	t.Run("offset zero is a real value", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "test.db")

		// A UTC deployment must not fall back to the default offset
		cfg, err := ParseFlags([]string{"-tz", "0"})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.TimezoneOffsetHours != 0 {
			t.Errorf("Expected -tz 0 to mean UTC, got offset %d", cfg.TimezoneOffsetHours)
		}

		t.Setenv("TIMEZONE_OFFSET_HOURS", "0")
		cfg, err = ParseFlags(nil)
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.TimezoneOffsetHours != 0 {
			t.Errorf("Expected TIMEZONE_OFFSET_HOURS=0 to mean UTC, got offset %d", cfg.TimezoneOffsetHours)
		}
	})

	t.Run("negative offsets parse", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "test.db")

		cfg, err := ParseFlags([]string{"-tz", "-5"})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.TimezoneOffsetHours != -5 {
			t.Errorf("Expected offset -5, got %d", cfg.TimezoneOffsetHours)
		}
	})

	t.Run("database URL is required", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		if _, err := ParseFlags(nil); err == nil {
			t.Error("Expected error without a database URL")
		}
	})

	t.Run("rejects unknown database type", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "test.db")

		if _, err := ParseFlags([]string{"-t", "oracle"}); err == nil {
			t.Error("Expected error for unknown database type")
		}
	})

	t.Run("accepts postgres", func(t *testing.T) {
		cfg, err := ParseFlags([]string{"-t", "postgres", "-d", "postgres://localhost/smartvote"})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.DatabaseType != "postgres" {
			t.Errorf("Expected postgres, got %s", cfg.DatabaseType)
		}
	})

	t.Run("invalid PORT env is an error", func(t *testing.T) {
		t.Setenv("PORT", "not-a-number")
		t.Setenv("DATABASE_URL", "test.db")

		if _, err := ParseFlags(nil); err == nil {
			t.Error("Expected error for non-numeric PORT")
		}
	})

	t.Run("yaml config file fills gaps under env", func(t *testing.T) {
		t.Setenv("TOKEN_TIMEOUT_MINUTES", "45")

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "port: 5000\ndatabase_url: file.db\ntoken_timeout_minutes: 15\nrate_limit_max_attempts: 20\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := ParseFlags([]string{"-config", path})
		if err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if cfg.Port != 5000 {
			t.Errorf("Expected port 5000 from file, got %d", cfg.Port)
		}
		if cfg.DatabaseURL != "file.db" {
			t.Errorf("Expected file.db, got %s", cfg.DatabaseURL)
		}
		// Env beats the file
		if cfg.TokenTimeoutMinutes != 45 {
			t.Errorf("Expected env timeout 45 over file 15, got %d", cfg.TokenTimeoutMinutes)
		}
		if cfg.RateLimitMaxAttempts != 20 {
			t.Errorf("Expected 20 attempts from file, got %d", cfg.RateLimitMaxAttempts)
		}
	})

	t.Run("missing config file is an error", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "test.db")

		if _, err := ParseFlags([]string{"-config", "/no/such/file.yaml"}); err == nil {
			t.Error("Expected error for missing config file")
		}
	})
}

func TestDurationHelpers(t *testing.T) {
	cfg := Config{
		TokenTimeoutMinutes:    30,
		RateLimitWindowMinutes: 5,
		SessionTTLHours:        12,
	}

	if cfg.TokenTimeout() != 30*time.Minute {
		t.Errorf("Expected 30m, got %v", cfg.TokenTimeout())
	}
	if cfg.RateLimitWindow() != 5*time.Minute {
		t.Errorf("Expected 5m, got %v", cfg.RateLimitWindow())
	}
	if cfg.SessionTTL() != 12*time.Hour {
		t.Errorf("Expected 12h, got %v", cfg.SessionTTL())
	}
}
