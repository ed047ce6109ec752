// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pickstack/ranked/auth"
	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/middleware"
	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/notify"
	"github.com/pickstack/ranked/scheduler"
	"github.com/pickstack/ranked/slug"
	"github.com/pickstack/ranked/store"
)

type PollHandler struct {
	store      *store.Store
	cfg        cliparse.Config
	sched      *scheduler.Scheduler
	dispatcher notify.Dispatcher
}

func NewPollHandler(s *store.Store, cfg cliparse.Config, sched *scheduler.Scheduler, dispatcher notify.Dispatcher) *PollHandler {
	return &PollHandler{store: s, cfg: cfg, sched: sched, dispatcher: dispatcher}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	options, err := validateOptions(req.Options)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	template := slug.DefaultTemplate
	if req.Recurrence != nil {
		if req.Recurrence.PeriodDays < models.MinPeriodDays {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.ErrPeriodTooShort.Error())
			return
		}
		if req.Recurrence.DurationHours < models.MinDurationHours {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.ErrDurationTooShort.Error())
			return
		}
		if req.Recurrence.IDTemplate != "" {
			if err := slug.ValidateTemplate(req.Recurrence.IDTemplate); err != nil {
				middleware.ErrorResponse(w, http.StatusBadRequest, models.ErrBadIDTemplate.Error())
				return
			}
			template = req.Recurrence.IDTemplate
		}
		// Existing groups keep spawning past the cap; only new groups
		// are refused.
		if !h.sched.Limits().CanCreateNew {
			middleware.ErrorResponse(w, http.StatusConflict, models.ErrGroupCapReached.Error())
			return
		}
	}

	now := time.Now().UTC()
	opensAt := now
	autoCloseAt := req.AutoCloseAt
	if req.Recurrence != nil {
		closeAt := opensAt.Add(time.Duration(req.Recurrence.DurationHours) * time.Hour)
		autoCloseAt = &closeAt
	}
	if autoCloseAt != nil && !autoCloseAt.After(now) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "auto_close_at must be in the future")
		return
	}
	if req.ClosesAt != nil && !req.ClosesAt.After(now) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "closes_at must be in the future")
		return
	}

	// The advertised close drives the id template's close tokens.
	closeRef := opensAt
	if autoCloseAt != nil {
		closeRef = *autoCloseAt
	}
	if req.ClosesAt != nil {
		closeRef = *req.ClosesAt
	}
	candidate := slug.BuildID(req.Title, closeRef, &opensAt, template)
	pollID, err := slug.UniqueID(candidate, h.store.PollExists)
	if err != nil {
		log.Error().Err(err).Msg("failed to mint poll id")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	poll := models.Poll{
		ID:          pollID,
		Title:       req.Title,
		Status:      models.StatusOpen,
		OpensAt:     opensAt,
		ClosesAt:    req.ClosesAt,
		AutoCloseAt: autoCloseAt,
		CreatedAt:   now,
	}
	if req.ChannelURL != "" {
		poll.ChannelURL = &req.ChannelURL
	}

	if req.Recurrence != nil {
		recurrenceID := uuid.NewString()
		rec := models.Recurrence{
			ID:            recurrenceID,
			PeriodDays:    req.Recurrence.PeriodDays,
			DurationHours: req.Recurrence.DurationHours,
			NextStart:     opensAt.Add(time.Duration(req.Recurrence.PeriodDays) * 24 * time.Hour),
			Active:        true,
			IDTemplate:    template,
		}
		if err := h.store.CreateRecurrence(rec); err != nil {
			log.Error().Err(err).Msg("failed to create recurrence")
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		poll.RecurrenceID = &recurrenceID
	}

	if err := h.store.CreatePoll(poll, options); err != nil {
		log.Error().Err(err).Msg("failed to insert poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	// Recurring polls hand back the group-scoped key so the same
	// credential keeps working on every spawned successor.
	adminKey := auth.GenerateAdminKey(pollID, h.cfg.AdminKeySalt)
	if poll.RecurrenceID != nil {
		adminKey = auth.GenerateAdminKey(*poll.RecurrenceID, h.cfg.AdminKeySalt)
	}
	pollURL := h.cfg.BaseURL + "/polls/" + pollID

	log.Info().Str("poll_id", pollID).Bool("recurring", req.Recurrence != nil).Msg("poll created")

	// Creation announcement is best-effort: there is no retry flag for
	// this class, and a dead channel must not fail the create.
	if poll.ChannelURL != nil {
		h.dispatcher.Dispatch(*poll.ChannelURL, notify.Event{
			Type:     notify.EventVoteCreated,
			PollID:   pollID,
			Title:    poll.Title,
			URL:      pollURL,
			ClosesAt: poll.CloseTime(),
		})
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:   pollID,
		AdminKey: adminKey,
		URL:      pollURL,
	})
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.loadPoll(w, r)
	if !ok {
		return
	}

	options, err := h.store.GetOptions(poll.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to query options")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	count, err := h.store.CountBallots(poll.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to count ballots")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollWithOptions{
		Poll:        poll,
		Options:     options,
		BallotCount: count,
	})
}

// ClosePoll handles POST /polls/{id}/close
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.authorizePoll(w, r)
	if !ok {
		return
	}

	closedAt := time.Now().UTC()
	closed, err := h.store.ClosePoll(poll.ID, closedAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to close poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}
	if !closed {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open")
		return
	}

	log.Info().Str("poll_id", poll.ID).Msg("poll closed")
	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"poll_id":   poll.ID,
		"closed_at": closedAt,
	})
}

// ReopenPoll handles POST /polls/{id}/reopen
func (h *PollHandler) ReopenPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.authorizePoll(w, r)
	if !ok {
		return
	}

	reopened, err := h.store.ReopenPoll(poll.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reopen poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reopen poll")
		return
	}
	if !reopened {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not closed")
		return
	}

	log.Info().Str("poll_id", poll.ID).Msg("poll reopened")
	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"poll_id": poll.ID,
		"status":  models.StatusOpen,
	})
}

// RenamePoll handles POST /polls/{id}/rename. The id is minted at
// creation and never changes; only the display title moves.
func (h *PollHandler) RenamePoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.authorizePoll(w, r)
	if !ok {
		return
	}

	var req models.RenamePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.store.RenamePoll(poll.ID, req.Title); err != nil {
		log.Error().Err(err).Msg("failed to rename poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to rename poll")
		return
	}

	log.Info().Str("poll_id", poll.ID).Str("title", req.Title).Msg("poll renamed")
	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"poll_id": poll.ID,
		"title":   req.Title,
	})
}

// ReplaceOptions handles PUT /polls/{id}/options. Rankings referencing
// removed options are stripped from existing ballots; remaining
// rankings keep their order.
func (h *PollHandler) ReplaceOptions(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.authorizePoll(w, r)
	if !ok {
		return
	}

	var req models.ReplaceOptionsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	options, err := validateOptions(req.Options)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	stripped, err := h.store.ReplaceOptions(poll.ID, options)
	if err != nil {
		log.Error().Err(err).Msg("failed to replace options")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to replace options")
		return
	}
	if stripped > 0 {
		log.Warn().
			Str("poll_id", poll.ID).
			Int("stripped_rankings", stripped).
			Msg("option edit truncated existing ballots")
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"poll_id":           poll.ID,
		"options":           options,
		"stripped_rankings": stripped,
	})
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.authorizePoll(w, r)
	if !ok {
		return
	}

	if err := h.store.DeletePoll(poll.ID); err != nil {
		log.Error().Err(err).Msg("failed to delete poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete poll")
		return
	}

	log.Info().Str("poll_id", poll.ID).Msg("poll deleted")
	w.WriteHeader(http.StatusNoContent)
}

// StopRecurrence handles POST /polls/{id}/recurrence/stop
func (h *PollHandler) StopRecurrence(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.authorizePoll(w, r)
	if !ok {
		return
	}

	if poll.RecurrenceID == nil {
		middleware.ErrorResponse(w, http.StatusConflict, models.ErrNoRecurrence.Error())
		return
	}

	stopped, err := h.store.StopRecurrence(*poll.RecurrenceID)
	if err != nil {
		log.Error().Err(err).Msg("failed to stop recurrence")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to stop recurrence")
		return
	}
	if !stopped {
		middleware.ErrorResponse(w, http.StatusConflict, "Recurrence is already stopped")
		return
	}

	log.Info().Str("poll_id", poll.ID).Str("recurrence_id", *poll.RecurrenceID).Msg("recurrence stopped")
	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"poll_id":       poll.ID,
		"recurrence_id": *poll.RecurrenceID,
	})
}

// loadPoll resolves the {id} path value to a stored poll.
func (h *PollHandler) loadPoll(w http.ResponseWriter, r *http.Request) (models.Poll, bool) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return models.Poll{}, false
	}

	poll, err := h.store.GetPoll(pollID)
	if errors.Is(err, models.ErrPollNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return models.Poll{}, false
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to query poll")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Poll{}, false
	}
	return poll, true
}

// authorizePoll loads the poll and checks the X-Admin-Key header.
func (h *PollHandler) authorizePoll(w http.ResponseWriter, r *http.Request) (models.Poll, bool) {
	poll, ok := h.loadPoll(w, r)
	if !ok {
		return models.Poll{}, false
	}
	if err := authorize(poll, r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return models.Poll{}, false
	}
	return poll, true
}

// authorize accepts the poll's own key, and for scheduler-created
// polls also the key of the recurrence group or the runoff source, so
// the original creator keeps admin access over successors and runoffs
// without new credentials.
func authorize(poll models.Poll, adminKey, salt string) error {
	if auth.ValidateAdminKey(poll.ID, adminKey, salt) == nil {
		return nil
	}
	if poll.RecurrenceID != nil && auth.ValidateAdminKey(*poll.RecurrenceID, adminKey, salt) == nil {
		return nil
	}
	if poll.RunoffOf != nil && auth.ValidateAdminKey(*poll.RunoffOf, adminKey, salt) == nil {
		return nil
	}
	return auth.ErrInvalidAdminKey
}

// validateOptions normalizes an option list: trimmed labels, at least
// two, no empties, no case-insensitive duplicates.
func validateOptions(raw []string) ([]string, error) {
	options := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, label := range raw {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, models.ErrEmptyOption
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return nil, models.ErrDuplicateOption
		}
		seen[key] = struct{}{}
		options = append(options, label)
	}
	if len(options) < 2 {
		return nil, models.ErrNotEnoughOptions
	}
	return options, nil
}
