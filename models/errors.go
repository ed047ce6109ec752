// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrBallotNotFound = errors.New("ballot not found")

	// Poll creation / edit validation
	ErrTitleRequired    = errors.New("title is required")
	ErrNotEnoughOptions = errors.New("poll must have at least 2 options")
	ErrDuplicateOption  = errors.New("option labels must be unique")
	ErrEmptyOption      = errors.New("option label is empty")

	// Recurrence validation
	ErrPeriodTooShort   = errors.New("recurrence period must be at least 7 days")
	ErrDurationTooShort = errors.New("vote duration must be at least 1 hour")
	ErrBadIDTemplate    = errors.New("id template contains unknown tokens")
	ErrGroupCapReached  = errors.New("active recurrence group limit reached")
	ErrNoRecurrence     = errors.New("poll has no recurrence")

	// Ballot validation
	ErrEmptyRankings    = errors.New("rankings cannot be empty")
	ErrUnknownOption    = errors.New("ranking references an option the poll does not have")
	ErrDuplicateRanking = errors.New("rankings must not repeat an option")

	// Lifecycle state
	ErrPollNotOpen   = errors.New("poll is not open")
	ErrPollNotClosed = errors.New("poll is not closed")

	// Tie-runoff state
	ErrRunoffExists = errors.New("poll already has a runoff")
	ErrNoBallots    = errors.New("poll has no ballots")
	ErrNotATie      = errors.New("poll result is not a tie")
)
