// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database. databaseType is "sqlite"
// or "postgres" (the -t flag / DATABASE_TYPE env).
func Open(databaseType, url string) (*sql.DB, error) {
	switch databaseType {
	case "postgres":
		return sql.Open("postgres", url)
	case "sqlite":
		return sql.Open("sqlite", url)
	default:
		return nil, fmt.Errorf("unknown database type %q", databaseType)
	}
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS. Statements are
// executed one at a time so both drivers accept them. Timestamps are
// always written by application code in UTC; there are no database-side
// defaults.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS recurrence (
		id TEXT PRIMARY KEY,
		period_days INTEGER NOT NULL,
		duration_hours INTEGER NOT NULL,
		next_start TIMESTAMP NOT NULL,
		active BOOLEAN NOT NULL,
		id_template TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS poll (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('open', 'closed')),
		channel_url TEXT,
		opens_at TIMESTAMP NOT NULL,
		closes_at TIMESTAMP,
		auto_close_at TIMESTAMP,
		closed_at TIMESTAMP,
		open_sent_at TIMESTAMP,
		close_sent_at TIMESTAMP,
		runoff_id TEXT REFERENCES poll(id),
		runoff_of TEXT REFERENCES poll(id),
		runoff_checked_at TIMESTAMP,
		recurrence_id TEXT REFERENCES recurrence(id),
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_poll_status ON poll(status)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_auto_close ON poll(auto_close_at)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_recurrence ON poll(recurrence_id)`,

	`CREATE TABLE IF NOT EXISTS option (
		poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (poll_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS ballot (
		id TEXT PRIMARY KEY,
		poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
		voter_name TEXT,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ballot_poll_id ON ballot(poll_id)`,

	`CREATE TABLE IF NOT EXISTS ballot_rank (
		ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (ballot_id, position)
	)`,
}
