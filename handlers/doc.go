// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ranked API.

# Handler Types

Each handler is a struct with its dependencies injected:

  - PollHandler: Poll lifecycle (create, close, reopen, rename, options, delete, recurrence stop)
  - VoteHandler: Ballot submission and deletion
  - ResultsHandler: Live instant-runoff tabulation
  - SystemHandler: Runoff trigger, scheduler status, health

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(store, cfg, sched, dispatcher)

# Poll Lifecycle

Polls are created open and close either by admin action or by the
scheduler when their auto-close time arrives:

	POST /polls              → CreatePoll (returns admin_key and URL)
	POST /polls/{id}/close   → ClosePoll
	POST /polls/{id}/reopen  → ReopenPoll
	POST /polls/{id}/rename  → RenamePoll
	PUT  /polls/{id}/options → ReplaceOptions
	DELETE /polls/{id}       → DeletePoll

Admin operations require the X-Admin-Key header. Recurring polls are
administered with a group-scoped key that also works on every spawned
successor; a runoff accepts its source poll's key.

# Voting Flow

	POST /polls/{id}/ballots → SubmitBallot (ordered rankings)

Rankings must be a subset of the poll's options, matched
case-insensitively, each option at most once.

# Results

	GET /polls/{id}/results → GetResults

Tabulation is computed live from stored ballots on every request via
the irv package; results are available while voting is still open.
*/
package handlers
