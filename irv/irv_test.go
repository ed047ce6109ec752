// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package irv

import (
	"reflect"
	"testing"
)

func TestTabulateEmptyOptions(t *testing.T) {
	result := Tabulate(nil, [][]string{{"a"}, {"b"}})

	if result.Winner != "" {
		t.Errorf("Expected no winner, got %q", result.Winner)
	}
	if result.IsTie {
		t.Error("Expected no tie for empty options")
	}
	if len(result.Rounds) != 0 {
		t.Errorf("Expected zero rounds, got %d", len(result.Rounds))
	}
	if result.TotalBallots != 2 {
		t.Errorf("Expected total_ballots 2, got %d", result.TotalBallots)
	}
}

func TestTabulateEmptyBallots(t *testing.T) {
	result := Tabulate([]string{"b", "a", "c"}, nil)

	if !result.IsTie {
		t.Error("Expected tie for zero ballots")
	}
	if !reflect.DeepEqual(result.TiedOptions, []string{"a", "b", "c"}) {
		t.Errorf("Expected all options tied (sorted), got %v", result.TiedOptions)
	}
	if len(result.Rounds) != 0 {
		t.Errorf("Expected zero rounds, got %d", len(result.Rounds))
	}
}

func TestTabulateMajorityShortCircuit(t *testing.T) {
	ballots := [][]string{
		{"a", "b", "c"},
		{"a", "b", "c"},
		{"a", "c", "b"},
		{"b", "a", "c"},
		{"c", "b", "a"},
	}

	result := Tabulate([]string{"a", "b", "c"}, ballots)

	if result.Winner != "a" {
		t.Errorf("Expected winner a, got %q", result.Winner)
	}
	if len(result.Rounds) != 1 {
		t.Fatalf("Expected 1 round, got %d", len(result.Rounds))
	}
	expected := map[string]int{"a": 3, "b": 1, "c": 1}
	if !reflect.DeepEqual(result.Rounds[0].Tallies, expected) {
		t.Errorf("Expected tallies %v, got %v", expected, result.Rounds[0].Tallies)
	}
	if result.Rounds[0].Winner != "a" {
		t.Errorf("Expected round winner a, got %q", result.Rounds[0].Winner)
	}
}

func TestTabulateMultiRoundElimination(t *testing.T) {
	ballots := [][]string{
		{"a", "b", "c"},
		{"a", "b", "c"},
		{"b", "a", "c"},
		{"b", "a", "c"},
		{"c", "b", "a"},
	}

	result := Tabulate([]string{"a", "b", "c"}, ballots)

	if len(result.Rounds) != 2 {
		t.Fatalf("Expected 2 rounds, got %d", len(result.Rounds))
	}
	if result.Rounds[0].Eliminated != "c" {
		t.Errorf("Expected round 1 to eliminate c, got %q", result.Rounds[0].Eliminated)
	}
	if result.Rounds[0].TieBreak == nil || result.Rounds[0].TieBreak.Cause != CauseFewestVotes {
		t.Errorf("Expected fewest_votes cause, got %+v", result.Rounds[0].TieBreak)
	}
	if result.Winner != "b" {
		t.Errorf("Expected winner b, got %q", result.Winner)
	}
	if result.Rounds[1].Tallies["b"] != 3 {
		t.Errorf("Expected b tally 3 in round 2, got %d", result.Rounds[1].Tallies["b"])
	}
}

func TestTabulateFullTie(t *testing.T) {
	result := Tabulate([]string{"b", "a"}, [][]string{{"a", "b"}, {"b", "a"}})

	if !result.IsTie {
		t.Fatal("Expected tie")
	}
	if result.Winner != "" {
		t.Errorf("Expected no winner, got %q", result.Winner)
	}
	if !reflect.DeepEqual(result.TiedOptions, []string{"a", "b"}) {
		t.Errorf("Expected tied options [a b], got %v", result.TiedOptions)
	}
	if len(result.Rounds) != 1 {
		t.Errorf("Expected 1 terminal round, got %d", len(result.Rounds))
	}
}

// An exact 50/50 split must not produce a majority winner: the check is
// strictly greater than active/2.
func TestTabulateExactHalfIsNotMajority(t *testing.T) {
	result := Tabulate([]string{"a", "b"}, [][]string{{"a"}, {"a"}, {"b"}, {"b"}})

	if result.Winner != "" {
		t.Errorf("Expected no winner at 50/50, got %q", result.Winner)
	}
	if !result.IsTie {
		t.Error("Expected a 50/50 split to end as a tie")
	}
}

func TestTabulateSoleOption(t *testing.T) {
	// A lone standing option wins even with zero support.
	result := Tabulate([]string{"a"}, [][]string{{"b"}})

	if result.Winner != "a" {
		t.Errorf("Expected sole option a to win, got %q", result.Winner)
	}
	if len(result.Rounds) != 1 {
		t.Fatalf("Expected 1 round, got %d", len(result.Rounds))
	}
	if result.Rounds[0].Active != 0 {
		t.Errorf("Expected 0 active ballots, got %d", result.Rounds[0].Active)
	}
}

// Regression: weighted support must decide before first-round totals and
// lexicographic order. A naive cascade would eliminate "b" (lowest id);
// the weighted stage correctly eliminates "c", which has the weakest
// positional support.
func TestTabulateWeightedTieBreakPrecedence(t *testing.T) {
	ballots := [][]string{
		{"a", "b", "c", "d"},
		{"a", "b", "d", "c"},
		{"b", "a", "d", "c"},
		{"c"},
		{"d", "c"},
	}

	result := Tabulate([]string{"a", "b", "c", "d"}, ballots)

	if len(result.Rounds) == 0 {
		t.Fatal("Expected at least one round")
	}
	first := result.Rounds[0]
	if first.Eliminated != "c" {
		t.Errorf("Expected weighted support to eliminate c, got %q", first.Eliminated)
	}
	if first.TieBreak == nil {
		t.Fatal("Expected tie-break rationale on round 1")
	}
	if first.TieBreak.Cause != CauseWeightedSupport {
		t.Errorf("Expected cause weighted_support, got %q", first.TieBreak.Cause)
	}
	// b=10, c=6, d=7 over the tied set {b, c, d}
	if first.TieBreak.Scores["c"] != 6 || first.TieBreak.Scores["d"] != 7 {
		t.Errorf("Unexpected weighted scores: %v", first.TieBreak.Scores)
	}
	if result.Winner != "a" {
		t.Errorf("Expected winner a, got %q", result.Winner)
	}
}

func TestTabulateExhaustedBallots(t *testing.T) {
	ballots := [][]string{
		{"a", "b"},
		{"a"},
		{"b"},
		{"c"}, // exhausted after round 1
		{"c"},
	}

	result := Tabulate([]string{"a", "b", "c"}, ballots)

	if len(result.Rounds) < 2 {
		t.Fatalf("Expected at least 2 rounds, got %d", len(result.Rounds))
	}
	if result.Rounds[0].Active != 5 {
		t.Errorf("Expected 5 active in round 1, got %d", result.Rounds[0].Active)
	}
	last := result.Rounds[len(result.Rounds)-1]
	if last.Active >= 5 {
		t.Errorf("Expected exhausted ballots to leave the active count, got %d", last.Active)
	}
	if result.TotalBallots != 5 {
		t.Errorf("Exhausted ballots must still count in total, got %d", result.TotalBallots)
	}
}

func TestTabulateAllBallotsEmpty(t *testing.T) {
	result := Tabulate([]string{"a", "b"}, [][]string{{}, {}})

	if !result.IsTie {
		t.Error("Expected tie when every ballot is empty")
	}
	if len(result.Rounds) != 1 {
		t.Fatalf("Expected 1 terminal round, got %d", len(result.Rounds))
	}
	if result.Rounds[0].Active != 0 {
		t.Errorf("Expected 0 active ballots, got %d", result.Rounds[0].Active)
	}
}

func TestTabulateDeterminism(t *testing.T) {
	options := []string{"delta", "alpha", "charlie", "bravo"}
	ballots := [][]string{
		{"alpha", "bravo"},
		{"bravo", "charlie", "delta"},
		{"charlie"},
		{"delta", "alpha"},
		{"alpha", "delta"},
		{"bravo"},
	}

	first := Tabulate(options, ballots)
	for i := 0; i < 50; i++ {
		again := Tabulate(options, ballots)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d differed from first run:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestTabulateIgnoresDuplicateOptions(t *testing.T) {
	result := Tabulate([]string{"a", "b", "a", ""}, [][]string{{"a"}, {"a"}, {"b"}})

	if result.Winner != "a" {
		t.Errorf("Expected winner a, got %q", result.Winner)
	}
	if len(result.Rounds[0].Tallies) != 2 {
		t.Errorf("Expected 2 tallied options, got %v", result.Rounds[0].Tallies)
	}
}
