// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pickstack/ranked/models"
)

// Store wraps the shared database handle with the poll, ballot, and
// recurrence operations the handlers and scheduler need.
//
// Mutations that guard a lifecycle invariant (close once, notify once,
// one runoff ever) are conditional UPDATEs that re-check their
// precondition in the WHERE clause and report whether a row changed.
// Request handlers mutate the same rows concurrently; the guards make
// each transition first-writer-wins.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const pollColumns = `id, title, status, channel_url, opens_at, closes_at, auto_close_at, closed_at,
	open_sent_at, close_sent_at, runoff_id, runoff_of, runoff_checked_at, recurrence_id, created_at`

// CreatePoll inserts a poll and its ordered options in one transaction.
func (s *Store) CreatePoll(poll models.Poll, options []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (`+pollColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, poll.ID, poll.Title, poll.Status, poll.ChannelURL, utc(poll.OpensAt),
		utcp(poll.ClosesAt), utcp(poll.AutoCloseAt), utcp(poll.ClosedAt),
		utcp(poll.OpenSentAt), utcp(poll.CloseSentAt), poll.RunoffID, poll.RunoffOf,
		utcp(poll.RunoffCheckedAt), poll.RecurrenceID, utc(poll.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, label := range options {
		_, err = tx.Exec(`
			INSERT INTO option (poll_id, position, label)
			VALUES ($1, $2, $3)
		`, poll.ID, i, label)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	return tx.Commit()
}

// GetPoll loads one poll by id. Returns models.ErrPollNotFound when
// the id is unknown.
func (s *Store) GetPoll(id string) (models.Poll, error) {
	row := s.db.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE id = $1`, id)
	return scanPoll(row)
}

// PollExists reports whether an id is taken. Used as the uniqueness
// probe for the identifier builder.
func (s *Store) PollExists(id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check poll existence: %w", err)
	}
	return exists, nil
}

// GetOptions returns the poll's option labels in their stored order.
func (s *Store) GetOptions(pollID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT label FROM option WHERE poll_id = $1 ORDER BY position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// RenamePoll updates the display title only; the id is immutable.
func (s *Store) RenamePoll(id, title string) error {
	res, err := s.db.Exec(`UPDATE poll SET title = $1 WHERE id = $2`, title, id)
	if err != nil {
		return fmt.Errorf("failed to rename poll: %w", err)
	}
	return requireRow(res, models.ErrPollNotFound)
}

// ClosePoll marks an open poll closed. Reports false when the poll was
// already closed (or does not exist), so a race with an admin close or
// the auto-close pass resolves to a single transition.
func (s *Store) ClosePoll(id string, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE poll SET status = $1, closed_at = $2
		WHERE id = $3 AND status = $4
	`, models.StatusClosed, utc(now), id, models.StatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to close poll: %w", err)
	}
	return changedRow(res)
}

// ReopenPoll reverses a close. The close-notification one-shot is
// deliberately left intact (each class fires at most once per poll),
// but the runoff quiet-resolution marker is cleared so a later close
// re-evaluates the tie.
func (s *Store) ReopenPoll(id string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE poll SET status = $1, closed_at = NULL, runoff_checked_at = NULL
		WHERE id = $2 AND status = $3
	`, models.StatusOpen, id, models.StatusClosed)
	if err != nil {
		return false, fmt.Errorf("failed to reopen poll: %w", err)
	}
	return changedRow(res)
}

// ReplaceOptions swaps the poll's option set and strips rankings that
// reference removed labels from existing ballots, preserving the order
// of what remains. Returns the number of ranking rows stripped.
func (s *Store) ReplaceOptions(pollID string, labels []string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM option WHERE poll_id = $1`, pollID); err != nil {
		return 0, fmt.Errorf("failed to clear options: %w", err)
	}
	for i, label := range labels {
		_, err := tx.Exec(`
			INSERT INTO option (poll_id, position, label)
			VALUES ($1, $2, $3)
		`, pollID, i, label)
		if err != nil {
			return 0, fmt.Errorf("failed to insert option: %w", err)
		}
	}

	// Strip rankings for labels no longer in the option set.
	placeholders := make([]string, len(labels))
	args := []interface{}{pollID}
	for i, label := range labels {
		placeholders[i] = "$" + strconv.Itoa(i+2)
		args = append(args, label)
	}
	del := `
		DELETE FROM ballot_rank
		WHERE ballot_id IN (SELECT id FROM ballot WHERE poll_id = $1)`
	if len(labels) > 0 {
		del += ` AND label NOT IN (` + strings.Join(placeholders, ", ") + `)`
	}
	res, err := tx.Exec(del, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to strip rankings: %w", err)
	}
	stripped, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(stripped), nil
}

// DeletePoll removes a poll and cascades to its options, ballots, and
// rankings. The cascade is explicit so it does not depend on
// driver-level foreign-key enforcement.
func (s *Store) DeletePoll(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM ballot_rank WHERE ballot_id IN (SELECT id FROM ballot WHERE poll_id = $1)`,
		`DELETE FROM ballot WHERE poll_id = $1`,
		`DELETE FROM option WHERE poll_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to cascade delete: %w", err)
		}
	}

	res, err := tx.Exec(`DELETE FROM poll WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if err := requireRow(res, models.ErrPollNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

// One-shot notification markers. Each sets its flag only if still
// unset, so a delivery retry or a concurrent tick cannot fire a class
// twice for the same poll.

func (s *Store) MarkOpenSent(id string, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE poll SET open_sent_at = $1
		WHERE id = $2 AND open_sent_at IS NULL
	`, utc(now), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark open notification: %w", err)
	}
	return changedRow(res)
}

func (s *Store) MarkCloseSent(id string, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE poll SET close_sent_at = $1
		WHERE id = $2 AND close_sent_at IS NULL
	`, utc(now), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark close notification: %w", err)
	}
	return changedRow(res)
}

// MarkRunoffChecked records that the tie-runoff pass examined a closed
// poll and found nothing to do (no ballots, or a clean winner).
func (s *Store) MarkRunoffChecked(id string, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE poll SET runoff_checked_at = $1
		WHERE id = $2 AND runoff_checked_at IS NULL
	`, utc(now), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark runoff check: %w", err)
	}
	return changedRow(res)
}

// ClaimRunoff links a runoff poll to its source. The link is set at
// most once; a second claim reports false and the caller must treat
// the runoff as already handled.
func (s *Store) ClaimRunoff(sourceID, runoffID string, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE poll SET runoff_id = $1, runoff_checked_at = $2
		WHERE id = $3 AND runoff_id IS NULL
	`, runoffID, utc(now), sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to claim runoff: %w", err)
	}
	return changedRow(res)
}

// Scheduler listings. Each is a pure predicate over poll fields; the
// passes re-check preconditions again at the point of mutation.

// ListDueAutoClose returns open polls whose scheduled auto-close time
// has arrived.
func (s *Store) ListDueAutoClose(now time.Time) ([]models.Poll, error) {
	return s.listPolls(`
		SELECT `+pollColumns+` FROM poll
		WHERE status = $1 AND auto_close_at IS NOT NULL AND auto_close_at <= $2
		ORDER BY auto_close_at
	`, models.StatusOpen, utc(now))
}

// ListDueOpenNotify returns open polls with a channel whose start time
// has arrived and whose open notification has not fired.
func (s *Store) ListDueOpenNotify(now time.Time) ([]models.Poll, error) {
	return s.listPolls(`
		SELECT `+pollColumns+` FROM poll
		WHERE status = $1 AND channel_url IS NOT NULL
		  AND open_sent_at IS NULL AND opens_at <= $2
		ORDER BY opens_at
	`, models.StatusOpen, utc(now))
}

// ListDueCloseNotify returns closed polls with a channel whose close
// notification has not fired.
func (s *Store) ListDueCloseNotify() ([]models.Poll, error) {
	return s.listPolls(`
		SELECT `+pollColumns+` FROM poll
		WHERE status = $1 AND channel_url IS NOT NULL AND close_sent_at IS NULL
		ORDER BY closed_at
	`, models.StatusClosed)
}

// ListDueTieRunoff returns closed polls with a channel that have never
// been examined for a tie and have no runoff linked.
func (s *Store) ListDueTieRunoff() ([]models.Poll, error) {
	return s.listPolls(`
		SELECT `+pollColumns+` FROM poll
		WHERE status = $1 AND channel_url IS NOT NULL
		  AND runoff_id IS NULL AND runoff_checked_at IS NULL
		ORDER BY closed_at
	`, models.StatusClosed)
}

func (s *Store) listPolls(query string, args ...interface{}) ([]models.Poll, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	var polls []models.Poll
	for rows.Next() {
		poll, err := scanPollRows(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, rows.Err()
}

// Recurrence operations

func (s *Store) CreateRecurrence(r models.Recurrence) error {
	_, err := s.db.Exec(`
		INSERT INTO recurrence (id, period_days, duration_hours, next_start, active, id_template)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.PeriodDays, r.DurationHours, utc(r.NextStart), r.Active, r.IDTemplate)
	if err != nil {
		return fmt.Errorf("failed to insert recurrence: %w", err)
	}
	return nil
}

func (s *Store) GetRecurrence(id string) (models.Recurrence, error) {
	var r models.Recurrence
	err := s.db.QueryRow(`
		SELECT id, period_days, duration_hours, next_start, active, id_template
		FROM recurrence WHERE id = $1
	`, id).Scan(&r.ID, &r.PeriodDays, &r.DurationHours, &r.NextStart, &r.Active, &r.IDTemplate)
	if err == sql.ErrNoRows {
		return models.Recurrence{}, models.ErrNoRecurrence
	}
	if err != nil {
		return models.Recurrence{}, fmt.Errorf("failed to query recurrence: %w", err)
	}
	return r, nil
}

// StopRecurrence deactivates a group. Reports false when the group was
// already inactive.
func (s *Store) StopRecurrence(id string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE recurrence SET active = $1 WHERE id = $2 AND active = $3
	`, false, id, true)
	if err != nil {
		return false, fmt.Errorf("failed to stop recurrence: %w", err)
	}
	return changedRow(res)
}

// AdvanceRecurrence moves the group's anchor forward, conditional on
// the anchor still holding its previous value. A concurrent spawn of
// the same group loses this update and skips its duplicate successor.
func (s *Store) AdvanceRecurrence(id string, from, to time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE recurrence SET next_start = $1 WHERE id = $2 AND next_start = $3
	`, utc(to), id, utc(from))
	if err != nil {
		return false, fmt.Errorf("failed to advance recurrence: %w", err)
	}
	return changedRow(res)
}

func (s *Store) CountActiveRecurrences() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM recurrence WHERE active = $1`, true).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recurrences: %w", err)
	}
	return count, nil
}

// ListDueRecurrences returns active groups whose anchor has arrived,
// oldest first, capped at limit. Groups beyond the cap are picked up
// on a later tick, never dropped.
func (s *Store) ListDueRecurrences(now time.Time, limit int) ([]models.Recurrence, error) {
	rows, err := s.db.Query(`
		SELECT id, period_days, duration_hours, next_start, active, id_template
		FROM recurrence
		WHERE active = $1 AND next_start <= $2
		ORDER BY next_start
		LIMIT $3
	`, true, utc(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurrences: %w", err)
	}
	defer rows.Close()

	var due []models.Recurrence
	for rows.Next() {
		var r models.Recurrence
		err := rows.Scan(&r.ID, &r.PeriodDays, &r.DurationHours, &r.NextStart, &r.Active, &r.IDTemplate)
		if err != nil {
			return nil, err
		}
		due = append(due, r)
	}
	return due, rows.Err()
}

// LatestPollInGroup returns the most recently created poll carrying
// the recurrence id.
func (s *Store) LatestPollInGroup(recurrenceID string) (models.Poll, error) {
	row := s.db.QueryRow(`
		SELECT `+pollColumns+` FROM poll
		WHERE recurrence_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, recurrenceID)
	return scanPoll(row)
}

// HasOpenPollInGroup guards the one-open-poll-per-group invariant
// before a successor is spawned.
func (s *Store) HasOpenPollInGroup(recurrenceID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM poll WHERE recurrence_id = $1 AND status = $2)
	`, recurrenceID, models.StatusOpen).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open polls in group: %w", err)
	}
	return exists, nil
}

// Ballot operations

// CreateBallot inserts a ballot and its ranking rows in one
// transaction. Validation against the poll's option set happens in the
// handler before this call.
func (s *Store) CreateBallot(ballot models.Ballot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO ballot (id, poll_id, voter_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, ballot.ID, ballot.PollID, ballot.VoterName, utc(ballot.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}

	for i, label := range ballot.Rankings {
		_, err = tx.Exec(`
			INSERT INTO ballot_rank (ballot_id, position, label)
			VALUES ($1, $2, $3)
		`, ballot.ID, i, label)
		if err != nil {
			return fmt.Errorf("failed to insert ranking: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteBallot removes one ballot and its rankings. Reports false when
// the ballot does not belong to the poll or does not exist.
func (s *Store) DeleteBallot(pollID, ballotID string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ballot_rank WHERE ballot_id = $1`, ballotID); err != nil {
		return false, fmt.Errorf("failed to delete rankings: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM ballot WHERE id = $1 AND poll_id = $2`, ballotID, pollID)
	if err != nil {
		return false, fmt.Errorf("failed to delete ballot: %w", err)
	}
	deleted, err := changedRow(res)
	if err != nil {
		return false, err
	}
	if !deleted {
		// Ballot absent or owned by another poll; roll back the
		// rankings delete.
		return false, nil
	}

	return true, tx.Commit()
}

// CountBallots returns the number of ballots cast for a poll.
func (s *Store) CountBallots(pollID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ballot WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return count, nil
}

// ListRankings returns every ballot's ordered ranking for a poll, in
// ballot creation order. This is the tabulation engine's input shape.
func (s *Store) ListRankings(pollID string) ([][]string, error) {
	rows, err := s.db.Query(`
		SELECT b.id, r.label
		FROM ballot b
		JOIN ballot_rank r ON r.ballot_id = b.id
		WHERE b.poll_id = $1
		ORDER BY b.created_at, b.id, r.position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var rankings [][]string
	var current string
	for rows.Next() {
		var ballotID, label string
		if err := rows.Scan(&ballotID, &label); err != nil {
			return nil, err
		}
		if ballotID != current {
			rankings = append(rankings, nil)
			current = ballotID
		}
		rankings[len(rankings)-1] = append(rankings[len(rankings)-1], label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Ballots whose every ranking was stripped still count as cast.
	total, err := s.CountBallots(pollID)
	if err != nil {
		return nil, err
	}
	for len(rankings) < total {
		rankings = append(rankings, []string{})
	}

	return rankings, nil
}

// ListBallots returns full ballots with rankings, newest last.
func (s *Store) ListBallots(pollID string) ([]models.Ballot, error) {
	rows, err := s.db.Query(`
		SELECT id, poll_id, voter_name, created_at
		FROM ballot WHERE poll_id = $1
		ORDER BY created_at, id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	var ballots []models.Ballot
	for rows.Next() {
		var b models.Ballot
		if err := rows.Scan(&b.ID, &b.PollID, &b.VoterName, &b.CreatedAt); err != nil {
			return nil, err
		}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range ballots {
		ranks, err := s.ballotRankings(ballots[i].ID)
		if err != nil {
			return nil, err
		}
		ballots[i].Rankings = ranks
	}
	return ballots, nil
}

func (s *Store) ballotRankings(ballotID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT label FROM ballot_rank WHERE ballot_id = $1 ORDER BY position
	`, ballotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// Scan helpers

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoll(row *sql.Row) (models.Poll, error) {
	poll, err := scanPollRows(row)
	if err == sql.ErrNoRows {
		return models.Poll{}, models.ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to scan poll: %w", err)
	}
	return poll, nil
}

func scanPollRows(row rowScanner) (models.Poll, error) {
	var poll models.Poll
	err := row.Scan(
		&poll.ID, &poll.Title, &poll.Status, &poll.ChannelURL, &poll.OpensAt,
		&poll.ClosesAt, &poll.AutoCloseAt, &poll.ClosedAt, &poll.OpenSentAt,
		&poll.CloseSentAt, &poll.RunoffID, &poll.RunoffOf, &poll.RunoffCheckedAt,
		&poll.RecurrenceID, &poll.CreatedAt,
	)
	return poll, err
}

func requireRow(res sql.Result, missing error) error {
	changed, err := changedRow(res)
	if err != nil {
		return err
	}
	if !changed {
		return missing
	}
	return nil
}

func changedRow(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// All timestamps are stored in UTC so that text-affinity comparisons
// under SQLite order the same way PostgreSQL orders them.

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcp(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
