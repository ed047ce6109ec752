// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Ranked API server.

Ranked is a poll service built on instant-runoff voting (IRV): voters
rank options in order of preference, and last-place options are
eliminated round by round until one option holds a strict majority.
Polls can recur on a fixed period, close themselves on a deadline, and
spawn a runoff poll when tabulation ends in a tie.

# Starting the Server

The server requires environment variables or CLI flags for
configuration. A .env file in the working directory is loaded when
present:

	DATABASE_URL=ranked.db ADMIN_KEY_SALT=secret go run .

Or with flags:

	go run . -p 3321 -d "postgres://..." -t postgres -admin-salt secret

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3321)
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default: sqlite)
  - BASE_URL (-base-url): Public URL prefix used in poll links
  - TICK_INTERVAL (-tick): Scheduler tick interval (default: 30s)
  - MAX_ACTIVE_GROUPS (-max-groups): Cap on live recurring groups
  - MAX_PER_TICK (-max-per-tick): Cap on successor spawns per tick
  - LOG_LEVEL (-log-level), LOG_FILE (-log-file): Logging setup

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (polls, voting, results, system)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - irv: Instant-runoff tabulation
  - slug: Poll id building from templates
  - scheduler: Background lifecycle passes (auto-close, notifications,
    runoffs, recurrence)
  - notify: Webhook event dispatch
  - store: Persistence over database/sql
  - auth: Admin key generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
