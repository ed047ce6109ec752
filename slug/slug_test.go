// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package slug

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Lunch Vote", "lunch-vote"},
		{"whitespace run", "movie   night", "movie-night"},
		{"underscores", "team_lunch_poll", "team-lunch-poll"},
		{"strip punctuation", "what's for lunch?!", "whats-for-lunch"},
		{"collapse dashes", "a -- b", "a-b"},
		{"trim dashes", "--friday--", "friday"},
		{"unicode stripped", "café日本", "caf"},
		{"empty", "???", ""},
		{"digits kept", "q3 2025 offsite", "q3-2025-offsite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildID(t *testing.T) {
	closeAt := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	startAt := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		title    string
		format   string
		startAt  *time.Time
		expected string
	}{
		{"default template", "Friday Lunch", "", nil, "friday-lunch-03-14-2025"},
		{"iso close", "Lunch", "{title}-{close-yyyy-mm-dd}", nil, "lunch-2025-03-14"},
		{"start token", "Lunch", "{title}-{start-mm-dd-yyyy}", &startAt, "lunch-03-07-2025"},
		{"start token without start", "Lunch", "{title}-{start-mm-dd-yyyy}", nil, "lunch"},
		{"title only", "Movie Night", "{title}", nil, "movie-night"},
		{"empty title falls back", "???", "{title}", nil, "vote"},
		{"literal text normalized", "Lunch", "weekly_{title}", nil, "weekly-lunch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildID(tt.title, closeAt, tt.startAt, tt.format)
			if got != tt.expected {
				t.Errorf("BuildID = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildIDTruncates(t *testing.T) {
	closeAt := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	id := BuildID(strings.Repeat("very long title ", 10), closeAt, nil, "")

	if len(id) > MaxLen {
		t.Errorf("Expected id within %d chars, got %d (%q)", MaxLen, len(id), id)
	}
	if strings.HasSuffix(id, "-") {
		t.Errorf("Truncation must not leave a trailing dash: %q", id)
	}
}

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate("{title}-{close-yyyy-mm-dd}"); err != nil {
		t.Errorf("Expected valid template, got %v", err)
	}
	if err := ValidateTemplate("{title}-{bogus}"); err == nil {
		t.Error("Expected error for unknown token")
	}
}

func TestUniqueIDFirstTry(t *testing.T) {
	id, err := UniqueID("lunch-03-14-2025", func(string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != "lunch-03-14-2025" {
		t.Errorf("Expected candidate unchanged, got %q", id)
	}
}

func TestUniqueIDSuffixes(t *testing.T) {
	taken := map[string]bool{
		"lunch":   true,
		"lunch-2": true,
	}

	id, err := UniqueID("lunch", func(id string) (bool, error) { return taken[id], nil })
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != "lunch-3" {
		t.Errorf("Expected lunch-3, got %q", id)
	}
}

func TestUniqueIDRespectsCap(t *testing.T) {
	long := strings.Repeat("a", MaxLen)
	calls := 0

	id, err := UniqueID(long, func(id string) (bool, error) {
		calls++
		if len(id) > MaxLen {
			t.Errorf("Probe exceeded cap: %q (%d chars)", id, len(id))
		}
		return calls == 1, nil // only the bare candidate is taken
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(id) > MaxLen {
		t.Errorf("Expected id within %d chars, got %q", MaxLen, id)
	}
	if !strings.HasSuffix(id, "-2") {
		t.Errorf("Expected -2 suffix, got %q", id)
	}
}

func TestUniqueIDTimestampFallback(t *testing.T) {
	id, err := UniqueID("lunch", func(string) (bool, error) { return true, nil })
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id == "" || id == "lunch" {
		t.Errorf("Expected timestamp-suffixed fallback, got %q", id)
	}
	if !strings.HasPrefix(id, "lunch-") {
		t.Errorf("Expected lunch- prefix, got %q", id)
	}
}

func TestUniqueIDPropagatesError(t *testing.T) {
	_, err := UniqueID("lunch", func(string) (bool, error) {
		return false, errors.New("store unavailable")
	})
	if !errors.Is(err, ErrExistsCheck) {
		t.Errorf("Expected ErrExistsCheck, got %v", err)
	}
}
