// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/pickstack/ranked/irv"
)

// Poll status constants
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Recurrence bounds
const (
	MinPeriodDays    = 7
	MinDurationHours = 1
)

// Request types

type CreatePollRequest struct {
	Title       string             `json:"title"`
	Options     []string           `json:"options"`
	ChannelURL  string             `json:"channel_url,omitempty"`
	ClosesAt    *time.Time         `json:"closes_at,omitempty"`
	AutoCloseAt *time.Time         `json:"auto_close_at,omitempty"`
	Recurrence  *RecurrenceRequest `json:"recurrence,omitempty"`
}

type RecurrenceRequest struct {
	PeriodDays    int    `json:"period_days"`
	DurationHours int    `json:"duration_hours"`
	IDTemplate    string `json:"id_template,omitempty"`
}

type RenamePollRequest struct {
	Title string `json:"title"`
}

type ReplaceOptionsRequest struct {
	Options []string `json:"options"`
}

type SubmitBallotRequest struct {
	Rankings  []string `json:"rankings"`
	VoterName string   `json:"voter_name,omitempty"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
	URL      string `json:"url"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
}

type TriggerRunoffResponse struct {
	RunoffID string `json:"runoff_id"`
}

// ResultsResponse carries a live tabulation of the poll's ballots.
type ResultsResponse struct {
	PollID string     `json:"poll_id"`
	Status string     `json:"status"`
	Result irv.Result `json:"result"`
}

type SchedulerStatusResponse struct {
	Running         bool         `json:"running"`
	IntervalSeconds int          `json:"interval_seconds"`
	Limits          LimitsReport `json:"limits"`
}

// LimitsReport is the read-only view of the scheduler's protective limits.
type LimitsReport struct {
	ActiveGroups    int  `json:"active_groups"`
	MaxActiveGroups int  `json:"max_active_groups"`
	MaxPerTick      int  `json:"max_per_tick"`
	CanCreateNew    bool `json:"can_create_new"`
}

// Domain types

type Poll struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	// ChannelURL is the notification webhook for lifecycle events.
	ChannelURL *string   `json:"channel_url,omitempty"`
	OpensAt    time.Time `json:"opens_at"`
	// ClosesAt is the creator's advertised close time. It feeds the id
	// template's close tokens and notification payloads but is not
	// enforced; AutoCloseAt is what the scheduler acts on.
	ClosesAt     *time.Time `json:"closes_at,omitempty"`
	AutoCloseAt  *time.Time `json:"auto_close_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	RunoffID     *string    `json:"runoff_id,omitempty"`
	RunoffOf     *string    `json:"runoff_of,omitempty"`
	RecurrenceID *string    `json:"recurrence_id,omitempty"`
	// One-shot notification markers, never exposed in JSON.
	OpenSentAt      *time.Time `json:"-"`
	CloseSentAt     *time.Time `json:"-"`
	RunoffCheckedAt *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CloseTime returns the close time to show voters: the explicit
// advertised time when set, otherwise the scheduled auto-close.
func (p Poll) CloseTime() *time.Time {
	if p.ClosesAt != nil {
		return p.ClosesAt
	}
	return p.AutoCloseAt
}

type PollWithOptions struct {
	Poll        Poll     `json:"poll"`
	Options     []string `json:"options"`
	BallotCount int      `json:"ballot_count"`
}

// Recurrence describes one recurring-poll group. It is created with the
// group's first poll and carried forward by id into every successor.
type Recurrence struct {
	ID            string    `json:"id"`
	PeriodDays    int       `json:"period_days"`
	DurationHours int       `json:"duration_hours"`
	NextStart     time.Time `json:"next_start"`
	Active        bool      `json:"active"`
	IDTemplate    string    `json:"id_template"`
}

type Ballot struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	VoterName *string   `json:"voter_name,omitempty"`
	Rankings  []string  `json:"rankings"`
	CreatedAt time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
