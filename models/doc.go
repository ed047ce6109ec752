// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, options, channel_url, closes_at, auto_close_at, recurrence
  - RenamePollRequest: title
  - ReplaceOptionsRequest: options
  - SubmitBallotRequest: rankings (ordered option labels), voter_name

# Response Types

Types for JSON responses:

  - CreatePollResponse: poll_id, admin_key, url
  - SubmitBallotResponse: ballot_id
  - TriggerRunoffResponse: runoff_id
  - SchedulerStatusResponse: running, interval_seconds, limits
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Poll: poll metadata, lifecycle state, notification one-shot markers
  - Recurrence: recurring-group descriptor (period, duration, anchor)
  - Ballot: one voter's ordered ranking over a poll's options
  - LimitsReport: scheduler protective-limit snapshot

# Errors

Sentinel errors shared by the store, scheduler, and handlers. Handlers
map each to a specific HTTP rejection reason; the scheduler treats the
tie-runoff state errors (ErrNoBallots, ErrNotATie) as expected steady
states rather than failures.

# Constants

Status values:

	StatusOpen   = "open"
	StatusClosed = "closed"

Recurrence bounds MinPeriodDays and MinDurationHours gate the
recurrence descriptor at poll creation.
*/
package models
