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

	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/middleware"
	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/store"
)

type VoteHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewVoteHandler(s *store.Store, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{store: s, cfg: cfg}
}

// SubmitBallot handles POST /polls/{id}/ballots
func (h *VoteHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Rankings) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.ErrEmptyRankings.Error())
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

	now := time.Now().UTC()
	if poll.Status != models.StatusOpen || poll.OpensAt.After(now) {
		middleware.ErrorResponse(w, http.StatusConflict, models.ErrPollNotOpen.Error())
		return
	}

	options, err := h.store.GetOptions(pollID)
	if err != nil {
		log.Error().Err(err).Msg("failed to query options")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rankings, err := validateRankings(req.Rankings, options)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ballot := models.Ballot{
		ID:        uuid.NewString(),
		PollID:    pollID,
		Rankings:  rankings,
		CreatedAt: now,
	}
	if name := strings.TrimSpace(req.VoterName); name != "" {
		ballot.VoterName = &name
	}

	if err := h.store.CreateBallot(ballot); err != nil {
		log.Error().Err(err).Msg("failed to insert ballot")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	log.Info().Str("poll_id", pollID).Str("ballot_id", ballot.ID).Int("rankings", len(rankings)).Msg("ballot submitted")

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballot.ID,
	})
}

// DeleteBallot handles DELETE /polls/{id}/ballots/{ballotID}
func (h *VoteHandler) DeleteBallot(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	ballotID := r.PathValue("ballotID")
	if pollID == "" || ballotID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id and ballot_id are required")
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

	deleted, err := h.store.DeleteBallot(pollID, ballotID)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete ballot")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete ballot")
		return
	}
	if !deleted {
		middleware.ErrorResponse(w, http.StatusNotFound, "Ballot not found")
		return
	}

	log.Info().Str("poll_id", pollID).Str("ballot_id", ballotID).Msg("ballot deleted")
	w.WriteHeader(http.StatusNoContent)
}

// validateRankings checks that the ballot ranks a subset of the poll's
// options, matched case-insensitively, with no option ranked twice.
// Returned rankings carry the canonical stored labels.
func validateRankings(rankings, options []string) ([]string, error) {
	canonical := make(map[string]string, len(options))
	for _, label := range options {
		canonical[strings.ToLower(label)] = label
	}

	out := make([]string, 0, len(rankings))
	used := make(map[string]struct{}, len(rankings))
	for _, ranked := range rankings {
		key := strings.ToLower(strings.TrimSpace(ranked))
		label, ok := canonical[key]
		if !ok {
			return nil, models.ErrUnknownOption
		}
		if _, dup := used[key]; dup {
			return nil, models.ErrDuplicateRanking
		}
		used[key] = struct{}{}
		out = append(out, label)
	}
	return out, nil
}
