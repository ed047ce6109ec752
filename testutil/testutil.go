// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pickstack/ranked/auth"
	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/db"
	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/notify"
)

// dbCounter gives each test its own in-memory database name, so
// parallel tests never share state.
var dbCounter atomic.Int64

// SetupTestDB opens a fresh in-memory database with the full schema.
// The handle is closed automatically when the test finishes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := fmt.Sprintf("file:ranked_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	conn, err := db.Open("sqlite", url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// The shared in-memory database survives only while a connection
	// is open; pin one for the test's lifetime.
	conn.SetMaxIdleConns(2)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3321,
		DatabaseType:    "sqlite",
		AdminKeySalt:    "test-admin-salt",
		BaseURL:         "http://localhost:3321",
		TickInterval:    30 * time.Second,
		MaxActiveGroups: 100,
		MaxPerTick:      10,
	}
}

// CreateTestPoll creates a poll with the given options and returns its
// ID and admin key. status should be "open" or "closed".
func CreateTestPoll(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string, options []string) (pollID, adminKey string) {
	t.Helper()

	pollID = fmt.Sprintf("test-poll-%s", uuid.NewString()[:8])
	adminKey = auth.GenerateAdminKey(pollID, cfg.AdminKeySalt)

	now := time.Now().UTC()
	var closedAt *time.Time
	if status == models.StatusClosed {
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, title, status, opens_at, closed_at, created_at)
		VALUES ($1, 'Test Poll', $2, $3, $4, $5)
	`, pollID, status, now, closedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, label := range options {
		_, err := conn.Exec(`
			INSERT INTO option (poll_id, position, label)
			VALUES ($1, $2, $3)
		`, pollID, i, label)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return pollID, adminKey
}

// SetPollChannel attaches a notification channel URL to a poll.
func SetPollChannel(t *testing.T, conn *sql.DB, pollID, channelURL string) {
	t.Helper()

	_, err := conn.Exec(`UPDATE poll SET channel_url = $1 WHERE id = $2`, channelURL, pollID)
	if err != nil {
		t.Fatalf("Failed to set poll channel: %v", err)
	}
}

// SubmitTestBallot inserts a ballot with the given rankings and
// returns the ballot ID.
func SubmitTestBallot(t *testing.T, conn *sql.DB, pollID string, rankings []string) string {
	t.Helper()

	ballotID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO ballot (id, poll_id, created_at)
		VALUES ($1, $2, $3)
	`, ballotID, pollID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	for i, label := range rankings {
		_, err := conn.Exec(`
			INSERT INTO ballot_rank (ballot_id, position, label)
			VALUES ($1, $2, $3)
		`, ballotID, i, label)
		if err != nil {
			t.Fatalf("Failed to create test ranking: %v", err)
		}
	}

	return ballotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// FakeDispatcher records every dispatched event for assertions. Set
// Fail to simulate an unreachable channel; deliveries then report
// failure and the scheduler must retry on a later tick.
type FakeDispatcher struct {
	mu     sync.Mutex
	Fail   bool
	events []notify.Event
}

func (f *FakeDispatcher) Dispatch(channelURL string, event notify.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return false
	}
	f.events = append(f.events, event)
	return true
}

// Events returns a copy of everything delivered so far.
func (f *FakeDispatcher) Events() []notify.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Event, len(f.events))
	copy(out, f.events)
	return out
}

// EventsOfType filters delivered events by type.
func (f *FakeDispatcher) EventsOfType(eventType notify.EventType) []notify.Event {
	var out []notify.Event
	for _, e := range f.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
