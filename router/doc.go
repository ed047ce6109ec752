// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ranked API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, cfg, sched, dispatcher)

# Endpoints

Health:

	GET /health

Poll management (admin, requires X-Admin-Key):

	POST   /polls                       - Create poll (optionally recurring)
	POST   /polls/{id}/close            - Close voting
	POST   /polls/{id}/reopen           - Reopen a closed poll
	POST   /polls/{id}/rename           - Change the display title
	PUT    /polls/{id}/options          - Replace the option set
	DELETE /polls/{id}                  - Delete poll and ballots
	POST   /polls/{id}/recurrence/stop  - Deactivate the recurring group
	POST   /polls/{id}/runoff           - Trigger a tie runoff

Voting (public):

	POST   /polls/{id}/ballots            - Submit a ranked ballot
	DELETE /polls/{id}/ballots/{ballotID} - Remove a ballot (admin)

Results (public):

	GET /polls/{id}         - Poll info, options, ballot count
	GET /polls/{id}/results - Live instant-runoff tabulation

Scheduler:

	GET /scheduler/status - Loop state, interval, limits report

# Handler Initialization

The router creates handler instances with dependency injection:

	pollHandler := handlers.NewPollHandler(store, cfg, sched, dispatcher)
	voteHandler := handlers.NewVoteHandler(store, cfg)
	resultsHandler := handlers.NewResultsHandler(store)
	systemHandler := handlers.NewSystemHandler(store, cfg, sched)
*/
package router
