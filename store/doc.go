// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the persistence layer for polls, ballots, and
recurring groups.

Handlers and the scheduler share one Store over the same database
handle. The invariant-bearing transitions (closing a poll, marking a
notification sent, linking a runoff, advancing a recurrence anchor)
are conditional UPDATEs whose WHERE clause re-checks the precondition,
and callers branch on the reported row count instead of trusting an
earlier read. That makes every transition safe against the scheduler
and an admin racing on the same poll.

Multi-row writes (a poll with its options, a ballot with its rankings,
a cascade delete) run in transactions. All timestamps are normalized to
UTC before they reach the driver.
*/
package store
