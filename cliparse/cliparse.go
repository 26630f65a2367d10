package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Port         int    `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	DatabaseType string `yaml:"database_type"` // sqlite or postgres

	// Election clock: fixed UTC offset in hours, never the host zone
	TimezoneOffsetHours int `yaml:"timezone_offset_hours"`

	// Sweeper default for tokens stuck in activated
	TokenTimeoutMinutes int `yaml:"token_timeout_minutes"`

	// Rate limiting for login, activation, and validation
	RateLimitMaxAttempts   int `yaml:"rate_limit_max_attempts"`
	RateLimitWindowMinutes int `yaml:"rate_limit_window_minutes"`

	// Operator session lifetime
	SessionTTLHours int `yaml:"session_ttl_hours"`
}

// TokenTimeout returns the sweeper timeout as a duration.
func (c Config) TokenTimeout() time.Duration {
	return time.Duration(c.TokenTimeoutMinutes) * time.Minute
}

// RateLimitWindow returns the rate-limit window as a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMinutes) * time.Minute
}

// SessionTTL returns the operator session lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ParseFlags builds the configuration from, in order of precedence, CLI
// flags, environment variables (a .env file is loaded first if present), an
// optional YAML config file, and defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var configPath string

	fs := flag.NewFlagSet("smartvote", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or SQLite path")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&configPath, "config", "", "Optional YAML config file")
	// -tz 0 is a valid UTC deployment, so the unset marker is a sentinel
	// rather than zero
	fs.IntVar(&cfg.TimezoneOffsetHours, "tz", offsetUnset, "Election clock UTC offset in hours")
	fs.IntVar(&cfg.TokenTimeoutMinutes, "token-timeout", 0, "Activated-token timeout in minutes")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// .env values become visible to the env fallbacks below; existing
	// environment always wins over the file
	_ = godotenv.Load()

	fileCfg, err := loadConfigFile(configPath)
	if err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if fileCfg.Port != 0 {
			cfg.Port = fileCfg.Port
		} else {
			cfg.Port = 3372 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fileCfg.DatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = fileCfg.DatabaseType
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite"
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}

	if cfg.TimezoneOffsetHours == offsetUnset {
		cfg.TimezoneOffsetHours = pickInt(0, "TIMEZONE_OFFSET_HOURS", fileCfg.TimezoneOffsetHours, 7)
	}
	cfg.TokenTimeoutMinutes = pickInt(cfg.TokenTimeoutMinutes, "TOKEN_TIMEOUT_MINUTES", fileCfg.TokenTimeoutMinutes, 30)
	cfg.RateLimitMaxAttempts = pickInt(0, "RATE_LIMIT_MAX_ATTEMPTS", fileCfg.RateLimitMaxAttempts, 10)
	cfg.RateLimitWindowMinutes = pickInt(0, "RATE_LIMIT_WINDOW_MINUTES", fileCfg.RateLimitWindowMinutes, 5)
	cfg.SessionTTLHours = pickInt(0, "SESSION_TTL_HOURS", fileCfg.SessionTTLHours, 12)

	return cfg, nil
}

func loadConfigFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}
	return cfg, nil
}

const offsetUnset = math.MinInt

func pickInt(flagVal int, envKey string, fileVal, def int) int {
	if flagVal != 0 {
		return flagVal
	}
	if s := os.Getenv(envKey); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	if fileVal != 0 {
		return fileVal
	}
	return def
}
