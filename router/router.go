// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/handlers"
	"github.com/pickstack/ranked/middleware"
	"github.com/pickstack/ranked/notify"
	"github.com/pickstack/ranked/scheduler"
	"github.com/pickstack/ranked/store"
)

func NewRouter(s *store.Store, cfg cliparse.Config, sched *scheduler.Scheduler, dispatcher notify.Dispatcher) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(s, cfg, sched, dispatcher)
	voteHandler := handlers.NewVoteHandler(s, cfg)
	resultsHandler := handlers.NewResultsHandler(s)
	systemHandler := handlers.NewSystemHandler(s, cfg, sched)

	// Health check
	mux.HandleFunc("GET /health", systemHandler.Health)

	// Poll management (admin operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("POST /polls/{id}/close", middleware.WithLogging(pollHandler.ClosePoll))
	mux.HandleFunc("POST /polls/{id}/reopen", middleware.WithLogging(pollHandler.ReopenPoll))
	mux.HandleFunc("POST /polls/{id}/rename", middleware.WithLogging(pollHandler.RenamePoll))
	mux.HandleFunc("PUT /polls/{id}/options", middleware.WithLogging(pollHandler.ReplaceOptions))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))
	mux.HandleFunc("POST /polls/{id}/recurrence/stop", middleware.WithLogging(pollHandler.StopRecurrence))
	mux.HandleFunc("POST /polls/{id}/runoff", middleware.WithLogging(systemHandler.TriggerRunoff))

	// Voting operations (public)
	mux.HandleFunc("POST /polls/{id}/ballots", middleware.WithLogging(voteHandler.SubmitBallot))
	mux.HandleFunc("DELETE /polls/{id}/ballots/{ballotID}", middleware.WithLogging(voteHandler.DeleteBallot))

	// Results retrieval (public)
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Scheduler introspection
	mux.HandleFunc("GET /scheduler/status", middleware.WithLogging(systemHandler.SchedulerStatus))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ranked API v1"))
	})

	return mux
}
