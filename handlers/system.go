// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/middleware"
	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/scheduler"
	"github.com/pickstack/ranked/store"
)

type SystemHandler struct {
	store *store.Store
	cfg   cliparse.Config
	sched *scheduler.Scheduler
}

func NewSystemHandler(s *store.Store, cfg cliparse.Config, sched *scheduler.Scheduler) *SystemHandler {
	return &SystemHandler{store: s, cfg: cfg, sched: sched}
}

// TriggerRunoff handles POST /polls/{id}/runoff. It shares the
// scheduler's guard: a poll that already has a runoff linked gets a
// rejection, never a second runoff.
func (h *SystemHandler) TriggerRunoff(w http.ResponseWriter, r *http.Request) {
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
	if err := authorize(poll, r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	runoff, err := h.sched.TriggerTieRunoff(pollID, time.Now().UTC())
	switch {
	case err == nil:
		middleware.JSONResponse(w, http.StatusCreated, models.TriggerRunoffResponse{
			RunoffID: runoff.ID,
		})
	case errors.Is(err, models.ErrPollNotClosed),
		errors.Is(err, models.ErrNoBallots),
		errors.Is(err, models.ErrNotATie),
		errors.Is(err, models.ErrRunoffExists):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("poll_id", pollID).Msg("runoff trigger failed")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create runoff")
	}
}

// SchedulerStatus handles GET /scheduler/status
func (h *SystemHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.sched.Status())
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
