// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3321)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - BaseURL: Public base URL used when building poll links
  - TickInterval: Scheduler pass interval (default: 30s, minimum 1s)
  - MaxActiveGroups: Cap on active recurring poll groups (default: 100)
  - MaxPerTick: Cap on successor polls spawned per tick (default: 10)
  - LogLevel, LogFile: Logging destination and verbosity

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-base-url        Public base URL
	-tick            Scheduler tick interval
	-max-groups      Maximum active recurring groups
	-max-per-tick    Maximum polls spawned per tick
	-log-level       Minimum log level
	-log-file        Log file path
	-admin-salt      Admin key salt

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	BASE_URL          → -base-url
	TICK_INTERVAL     → -tick
	MAX_ACTIVE_GROUPS → -max-groups
	MAX_PER_TICK      → -max-per-tick
	LOG_LEVEL         → -log-level
	LOG_FILE          → -log-file
	ADMIN_KEY_SALT    → -admin-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or out of
range:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - tick interval must be at least one second
  - scheduler limits must be positive
*/
package cliparse
