// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package irv implements instant-runoff voting tabulation.

# Algorithm

Tabulate repeatedly tallies each ballot's highest-ranked option that is
still standing, then either declares a strict-majority winner, records
a terminal tie (every standing option at the minimum tally), or
eliminates exactly one option and runs another round:

	result := irv.Tabulate(options, ballots)

A ballot whose entire ranking has been eliminated is exhausted: it is
excluded from that round's active count but still counted in
TotalBallots. Eliminating down to a single standing option always
produces a winner, even without a majority of ballots cast.

# Tie-Breaking

When several options share a round's minimum tally, a deterministic
cascade picks the one to eliminate:

 1. weighted_support: lowest positional support summed over all ballots
 2. first_round_total: lowest round-1 tally
 3. lexicographic: ascending option id

Each round records which stage decided and its data (TieBreak) so
results pages can show the rationale.

# Purity

Tabulate and the resolver are pure, stateless, and total: no storage,
no randomness, no errors, and identical inputs yield byte-identical
results. They are safe to call concurrently from request handlers and
the lifecycle scheduler.
*/
package irv
