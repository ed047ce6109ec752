package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string
	BaseURL      string

	// Scheduler knobs
	TickInterval    time.Duration
	MaxActiveGroups int
	MaxPerTick      int

	LogLevel string
	LogFile  string
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("ranked", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL for poll links")

	// Scheduler config
	fs.DurationVar(&cfg.TickInterval, "tick", 0, "Scheduler tick interval")
	fs.IntVar(&cfg.MaxActiveGroups, "max-groups", 0, "Maximum active recurring groups")
	fs.IntVar(&cfg.MaxPerTick, "max-per-tick", 0, "Maximum polls spawned per tick")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Minimum log level")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Log file path (empty for stderr only)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3321 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
		}
	}

	if cfg.TickInterval == 0 {
		if tickStr := os.Getenv("TICK_INTERVAL"); tickStr != "" {
			tick, err := time.ParseDuration(tickStr)
			if err != nil {
				return Config{}, errors.New("invalid TICK_INTERVAL env variable")
			}
			cfg.TickInterval = tick
		} else {
			cfg.TickInterval = 30 * time.Second
		}
	}
	if cfg.TickInterval < time.Second {
		return Config{}, errors.New("tick interval must be at least 1s")
	}

	if cfg.MaxActiveGroups == 0 {
		cfg.MaxActiveGroups = envInt("MAX_ACTIVE_GROUPS", 100)
	}
	if cfg.MaxPerTick == 0 {
		cfg.MaxPerTick = envInt("MAX_PER_TICK", 10)
	}
	if cfg.MaxActiveGroups < 1 || cfg.MaxPerTick < 1 {
		return Config{}, errors.New("scheduler limits must be positive")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}
	if cfg.LogFile == "" {
		cfg.LogFile = os.Getenv("LOG_FILE")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	return cfg, nil
}

func envInt(name string, fallback int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
