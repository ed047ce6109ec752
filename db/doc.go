// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connection and schema creation.

The schema is portable across PostgreSQL (lib/pq) and SQLite
(modernc.org/sqlite): no database-side defaults, timestamps written by
application code in UTC, and $N placeholders, which both drivers
accept. The production deployment targets PostgreSQL; the test suite
runs against in-memory SQLite.

# Tables

  - recurrence: recurring-group descriptors
  - poll: contest state, lifecycle timestamps, one-shot markers, links
  - option: ordered option labels per poll
  - ballot, ballot_rank: one ranking row per preference position

Deleting a poll cascades to its options, ballots, and rankings.
*/
package db
