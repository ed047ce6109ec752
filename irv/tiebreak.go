// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package irv

import "sort"

// Tie-break causes, in cascade order.
const (
	CauseFewestVotes     = "fewest_votes"
	CauseWeightedSupport = "weighted_support"
	CauseFirstRoundTotal = "first_round_total"
	CauseLexicographic   = "lexicographic"
)

// TieBreak records why a particular option was eliminated when several
// shared the round's minimum tally.
type TieBreak struct {
	Cause string `json:"cause"`
	// Candidates is the set the deciding stage chose among.
	Candidates []string `json:"candidates,omitempty"`
	// Scores is the deciding stage's data, keyed by candidate.
	Scores map[string]int `json:"scores,omitempty"`
}

// stage narrows a tied set, keeping the candidates with the minimal
// stage score. A stage that narrows to one candidate decides the
// elimination; otherwise the next stage continues on the narrowed set.
type stage struct {
	cause string
	score func(id string) int
}

// resolve picks exactly one option to eliminate from those tied at the
// round minimum. The input must be sorted; the cascade is deterministic
// and always terminates because the final stage is total order.
func resolve(atMin []string, ballots [][]string, firstRound map[string]int) (string, *TieBreak) {
	if len(atMin) == 1 {
		return atMin[0], &TieBreak{
			Cause:      CauseFewestVotes,
			Candidates: atMin,
		}
	}

	weighted := weightedSupport(atMin, ballots)

	stages := []stage{
		{cause: CauseWeightedSupport, score: func(id string) int { return weighted[id] }},
		{cause: CauseFirstRoundTotal, score: func(id string) int { return firstRound[id] }},
	}

	tied := atMin
	for _, s := range stages {
		narrowed, scores := keepMinimal(tied, s.score)
		if len(narrowed) == 1 {
			return narrowed[0], &TieBreak{
				Cause:      s.cause,
				Candidates: tied,
				Scores:     scores,
			}
		}
		tied = narrowed
	}

	// Final stage: ascending option id, take the first.
	sort.Strings(tied)
	return tied[0], &TieBreak{
		Cause:      CauseLexicographic,
		Candidates: tied,
	}
}

// weightedSupport sums, per option, max(rankingLength - rankIndex, 0)
// at the position where the option appears on each ballot. An option
// absent from a ballot contributes 0.
func weightedSupport(options []string, ballots [][]string) map[string]int {
	sums := make(map[string]int, len(options))
	for _, id := range options {
		sums[id] = 0
	}
	for _, ballot := range ballots {
		for idx, id := range ballot {
			if _, tied := sums[id]; !tied {
				continue
			}
			weight := len(ballot) - idx
			if weight < 0 {
				weight = 0
			}
			sums[id] += weight
		}
	}
	return sums
}

// keepMinimal returns the candidates whose score is the minimum, in
// input order, along with the scores of the full candidate set.
func keepMinimal(candidates []string, score func(string) int) ([]string, map[string]int) {
	scores := make(map[string]int, len(candidates))
	min := score(candidates[0])
	for _, id := range candidates {
		s := score(id)
		scores[id] = s
		if s < min {
			min = s
		}
	}

	kept := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if scores[id] == min {
			kept = append(kept, id)
		}
	}
	return kept, scores
}
