// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWebhookDispatcher_DeliversJSON(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewWebhookDispatcher(zerolog.Nop())
	ok := d.Dispatch(server.URL, Event{
		Type:   EventVoteOpened,
		PollID: "movie-night-12-31-2026",
		Title:  "Movie Night",
		URL:    "http://localhost:3321/polls/movie-night-12-31-2026",
	})

	if !ok {
		t.Fatal("expected successful delivery")
	}
	if received.Type != EventVoteOpened {
		t.Errorf("expected vote_opened, got %q", received.Type)
	}
	if received.PollID != "movie-night-12-31-2026" {
		t.Errorf("unexpected poll id %q", received.PollID)
	}
	if received.Message == "" {
		t.Error("expected a default message to be filled in")
	}
}

func TestWebhookDispatcher_NonSuccessStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewWebhookDispatcher(zerolog.Nop())
	if d.Dispatch(server.URL, Event{Type: EventVoteClosed, PollID: "p"}) {
		t.Error("expected delivery failure on 500")
	}
}

func TestWebhookDispatcher_UnreachableChannelFails(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	// Reserved TEST-NET address, nothing listens there.
	if d.Dispatch("http://192.0.2.1:9/hook", Event{Type: EventVoteCreated, PollID: "p"}) {
		t.Error("expected delivery failure for unreachable channel")
	}
}

func TestSummary(t *testing.T) {
	closesAt := time.Now().Add(48 * time.Hour)

	tests := []struct {
		name  string
		event Event
		want  []string
	}{
		{
			name: "created",
			event: Event{
				Type:  EventVoteCreated,
				Title: "Lunch Spot",
				URL:   "http://x/polls/lunch-spot-2",
			},
			want: []string{"New vote created", "Lunch Spot"},
		},
		{
			name: "opened with close time",
			event: Event{
				Type:     EventVoteOpened,
				Title:    "Lunch Spot",
				ClosesAt: &closesAt,
			},
			want: []string{"Voting is open", "closes", "days"},
		},
		{
			name: "closed with winner",
			event: Event{
				Type:        EventVoteClosed,
				Title:       "Lunch Spot",
				Winner:      "tacos",
				BallotCount: 12,
			},
			want: []string{"winner tacos", "12 ballots"},
		},
		{
			name: "runoff",
			event: Event{
				Type:  EventRunoffRequired,
				Title: "Lunch Spot",
			},
			want: []string{"tie", "runoff started"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summary(tt.event)
			for _, fragment := range tt.want {
				if !strings.Contains(got, fragment) {
					t.Errorf("summary %q missing %q", got, fragment)
				}
			}
		})
	}
}
