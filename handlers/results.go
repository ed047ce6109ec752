// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pickstack/ranked/irv"
	"github.com/pickstack/ranked/middleware"
	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/store"
)

type ResultsHandler struct {
	store *store.Store
}

func NewResultsHandler(s *store.Store) *ResultsHandler {
	return &ResultsHandler{store: s}
}

// GetResults handles GET /polls/{id}/results. Tabulation runs live on
// every request; nothing is cached, so reopening a poll or deleting a
// ballot is reflected immediately.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	poll, err := h.store.GetPoll(pollID)
	if errors.Is(err, models.ErrPollNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to query poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	options, err := h.store.GetOptions(pollID)
	if err != nil {
		log.Error().Err(err).Msg("failed to query options")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	rankings, err := h.store.ListRankings(pollID)
	if err != nil {
		log.Error().Err(err).Msg("failed to query rankings")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		PollID: poll.ID,
		Status: poll.Status,
		Result: irv.Tabulate(options, rankings),
	})
}
