// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package irv

import "sort"

// Result is the outcome of one tabulation run.
type Result struct {
	// Winner is the winning option, or "" when there is none.
	Winner       string   `json:"winner,omitempty"`
	IsTie        bool     `json:"is_tie"`
	TiedOptions  []string `json:"tied_options,omitempty"`
	TotalBallots int      `json:"total_ballots"`
	Rounds       []Round  `json:"rounds"`
}

// Round records one elimination round for audit display.
type Round struct {
	Number  int            `json:"number"`
	Tallies map[string]int `json:"tallies"`
	// Active is the number of ballots with a standing preference this
	// round. Exhausted ballots are excluded here but still counted in
	// Result.TotalBallots.
	Active     int       `json:"active"`
	Eliminated string    `json:"eliminated,omitempty"`
	Winner     string    `json:"winner,omitempty"`
	TieBreak   *TieBreak `json:"tie_break,omitempty"`
}

// Tabulate runs instant-runoff voting over the given option set and
// ballots. It is a total function: any combination of inputs yields a
// Result, and identical inputs always yield an identical Result.
//
// Options may be empty (no winner, no rounds). Zero ballots is a tie
// across every option by definition, not an error.
func Tabulate(options []string, ballots [][]string) Result {
	standing := normalize(options)

	if len(standing) == 0 {
		return Result{TotalBallots: len(ballots)}
	}

	if len(ballots) == 0 {
		return Result{
			IsTie:        true,
			TiedOptions:  standing,
			TotalBallots: 0,
		}
	}

	result := Result{TotalBallots: len(ballots)}
	var firstRound map[string]int

	for number := 1; ; number++ {
		tallies, active := countRound(standing, ballots)
		if firstRound == nil {
			firstRound = tallies
		}

		round := Round{
			Number:  number,
			Tallies: tallies,
			Active:  active,
		}

		// Sole survivor always wins, majority or not.
		if len(standing) == 1 {
			round.Winner = standing[0]
			result.Winner = standing[0]
			result.Rounds = append(result.Rounds, round)
			return result
		}

		// Strict majority check: an exact 50/50 split does not win.
		for _, id := range standing {
			if float64(tallies[id]) > float64(active)/2 {
				round.Winner = id
				result.Winner = id
				result.Rounds = append(result.Rounds, round)
				return result
			}
		}

		// Find the options at the minimum tally.
		min := tallies[standing[0]]
		for _, id := range standing[1:] {
			if tallies[id] < min {
				min = tallies[id]
			}
		}
		atMin := make([]string, 0, len(standing))
		for _, id := range standing {
			if tallies[id] == min {
				atMin = append(atMin, id)
			}
		}

		// Every standing option at the minimum is a terminal tie.
		if len(atMin) == len(standing) {
			result.IsTie = true
			result.TiedOptions = atMin
			result.Rounds = append(result.Rounds, round)
			return result
		}

		eliminated, tieBreak := resolve(atMin, ballots, firstRound)
		round.Eliminated = eliminated
		round.TieBreak = tieBreak
		result.Rounds = append(result.Rounds, round)

		next := standing[:0]
		for _, id := range standing {
			if id != eliminated {
				next = append(next, id)
			}
		}
		standing = next
	}
}

// countRound tallies each ballot's first standing preference. Ballots
// with no standing entry are exhausted and excluded from active.
func countRound(standing []string, ballots [][]string) (map[string]int, int) {
	isStanding := make(map[string]bool, len(standing))
	tallies := make(map[string]int, len(standing))
	for _, id := range standing {
		isStanding[id] = true
		tallies[id] = 0
	}

	active := 0
	for _, ballot := range ballots {
		for _, id := range ballot {
			if isStanding[id] {
				tallies[id]++
				active++
				break
			}
		}
	}

	return tallies, active
}

// normalize returns the option set as a sorted, duplicate-free slice.
// Sorting fixes the enumeration order so that map iteration can never
// influence which option a scan visits first.
func normalize(options []string) []string {
	seen := make(map[string]bool, len(options))
	out := make([]string, 0, len(options))
	for _, id := range options {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
