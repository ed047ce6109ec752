// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Event types, one fixed notification class each. A poll fires each
// class at most once.
const (
	EventVoteCreated    EventType = "vote_created"
	EventVoteOpened     EventType = "vote_opened"
	EventVoteClosed     EventType = "vote_closed"
	EventRunoffRequired EventType = "runoff_required"
)

type EventType string

// Event is the payload posted to a poll's notification channel.
type Event struct {
	Type        EventType  `json:"type"`
	PollID      string     `json:"poll_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Message     string     `json:"message"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
	Winner      string     `json:"winner,omitempty"`
	TiedOptions []string   `json:"tied_options,omitempty"`
	RunoffID    string     `json:"runoff_id,omitempty"`
	BallotCount int        `json:"ballot_count,omitempty"`
}

// Dispatcher delivers events to a channel URL. Dispatch reports
// delivery success and never panics; the caller decides whether to
// retry. Implementations must be safe for concurrent use.
type Dispatcher interface {
	Dispatch(channelURL string, event Event) bool
}

// WebhookDispatcher posts events as JSON to the channel URL.
type WebhookDispatcher struct {
	client *http.Client
	log    zerolog.Logger
}

func NewWebhookDispatcher(log zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

// Dispatch posts the event and reports whether the channel accepted
// it. Any transport error or non-2xx status counts as failure.
func (d *WebhookDispatcher) Dispatch(channelURL string, event Event) bool {
	if event.Message == "" {
		event.Message = summary(event)
	}

	body, err := json.Marshal(event)
	if err != nil {
		d.log.Error().Err(err).Str("poll_id", event.PollID).Msg("failed to encode notification")
		return false
	}

	resp, err := d.client.Post(channelURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.Warn().Err(err).
			Str("poll_id", event.PollID).
			Str("event", string(event.Type)).
			Msg("notification delivery failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.log.Warn().
			Int("status", resp.StatusCode).
			Str("poll_id", event.PollID).
			Str("event", string(event.Type)).
			Msg("channel rejected notification")
		return false
	}
	return true
}

// summary builds the human-readable line channels display when they
// ignore the structured fields.
func summary(event Event) string {
	switch event.Type {
	case EventVoteCreated:
		return fmt.Sprintf("New vote created: %s (%s)", event.Title, event.URL)
	case EventVoteOpened:
		if event.ClosesAt != nil {
			return fmt.Sprintf("Voting is open: %s, closes %s (%s)",
				event.Title, humanize.Time(*event.ClosesAt), event.URL)
		}
		return fmt.Sprintf("Voting is open: %s (%s)", event.Title, event.URL)
	case EventVoteClosed:
		if event.Winner != "" {
			return fmt.Sprintf("Voting closed: %s, winner %s with %d ballots cast (%s)",
				event.Title, event.Winner, event.BallotCount, event.URL)
		}
		return fmt.Sprintf("Voting closed: %s, %d ballots cast (%s)",
			event.Title, event.BallotCount, event.URL)
	case EventRunoffRequired:
		return fmt.Sprintf("Vote ended in a tie: %s, runoff started (%s)",
			event.Title, event.URL)
	}
	return fmt.Sprintf("%s: %s (%s)", event.Type, event.Title, event.URL)
}
