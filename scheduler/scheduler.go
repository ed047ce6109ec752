// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/irv"
	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/notify"
	"github.com/pickstack/ranked/slug"
	"github.com/pickstack/ranked/store"
)

// Scheduler is the poll lifecycle control loop. Each tick runs five
// idempotent passes: auto-close, close-notification,
// open-notification, tie-runoff, and recurrence-spawn. It keeps no
// state of its own between ticks, so a restart at any point is safe;
// every pass re-checks its precondition at the point of mutation.
type Scheduler struct {
	store      *store.Store
	dispatcher notify.Dispatcher
	cfg        cliparse.Config
	log        zerolog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func New(s *store.Store, dispatcher notify.Dispatcher, cfg cliparse.Config, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:      s,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log,
	}
}

// Start launches the tick loop. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stop, s.done)
	s.log.Info().Dur("interval", s.cfg.TickInterval).Msg("scheduler started")
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	s.log.Info().Msg("scheduler stopped")
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick(time.Now())
		}
	}
}

// Tick runs one full pass cycle at the given instant. Exported so
// tests drive the scheduler without a timer. A failure while
// processing one poll is logged and does not abort the rest of the
// pass or later passes.
func (s *Scheduler) Tick(now time.Time) {
	s.autoClosePass(now)
	s.closeNotifyPass(now)
	s.openNotifyPass(now)
	s.tieRunoffPass(now)
	s.recurrencePass(now)
}

// Status reports the loop state and limits for the admin surface.
func (s *Scheduler) Status() models.SchedulerStatusResponse {
	return models.SchedulerStatusResponse{
		Running:         s.Running(),
		IntervalSeconds: int(s.cfg.TickInterval / time.Second),
		Limits:          s.Limits(),
	}
}

// Limits reports the recurrence caps and whether a new group would be
// admitted right now.
func (s *Scheduler) Limits() models.LimitsReport {
	active, err := s.store.CountActiveRecurrences()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count active groups")
	}
	return models.LimitsReport{
		ActiveGroups:    active,
		MaxActiveGroups: s.cfg.MaxActiveGroups,
		MaxPerTick:      s.cfg.MaxPerTick,
		CanCreateNew:    err == nil && active < s.cfg.MaxActiveGroups,
	}
}

// autoClosePass closes open polls whose scheduled close time has
// arrived. The close itself is conditional, so losing a race to an
// admin close just means no change here.
func (s *Scheduler) autoClosePass(now time.Time) {
	polls, err := s.store.ListDueAutoClose(now)
	if err != nil {
		s.log.Error().Err(err).Msg("auto-close listing failed")
		return
	}
	for _, poll := range polls {
		closed, err := s.store.ClosePoll(poll.ID, now)
		if err != nil {
			s.log.Error().Err(err).Str("poll_id", poll.ID).Msg("auto-close failed")
			continue
		}
		if closed {
			s.log.Info().Str("poll_id", poll.ID).Msg("poll auto-closed")
		}
	}
}

// closeNotifyPass announces results for closed polls whose close
// notification has not fired. The one-shot flag is set only after the
// channel confirms delivery; a failed delivery retries next tick.
func (s *Scheduler) closeNotifyPass(now time.Time) {
	polls, err := s.store.ListDueCloseNotify()
	if err != nil {
		s.log.Error().Err(err).Msg("close-notify listing failed")
		return
	}
	for _, poll := range polls {
		if err := s.notifyClose(poll, now); err != nil {
			s.log.Error().Err(err).Str("poll_id", poll.ID).Msg("close notification failed")
		}
	}
}

func (s *Scheduler) notifyClose(poll models.Poll, now time.Time) error {
	options, err := s.store.GetOptions(poll.ID)
	if err != nil {
		return err
	}
	rankings, err := s.store.ListRankings(poll.ID)
	if err != nil {
		return err
	}
	result := irv.Tabulate(options, rankings)

	event := notify.Event{
		Type:        notify.EventVoteClosed,
		PollID:      poll.ID,
		Title:       poll.Title,
		URL:         s.pollURL(poll.ID),
		Winner:      result.Winner,
		TiedOptions: result.TiedOptions,
		BallotCount: result.TotalBallots,
	}
	if !s.dispatcher.Dispatch(*poll.ChannelURL, event) {
		return nil // retried next tick
	}

	if _, err := s.store.MarkCloseSent(poll.ID, now); err != nil {
		return err
	}
	s.log.Info().Str("poll_id", poll.ID).Msg("close notification sent")
	return nil
}

// openNotifyPass announces polls whose start time has arrived and
// whose open notification has not fired.
func (s *Scheduler) openNotifyPass(now time.Time) {
	polls, err := s.store.ListDueOpenNotify(now)
	if err != nil {
		s.log.Error().Err(err).Msg("open-notify listing failed")
		return
	}
	for _, poll := range polls {
		event := notify.Event{
			Type:     notify.EventVoteOpened,
			PollID:   poll.ID,
			Title:    poll.Title,
			URL:      s.pollURL(poll.ID),
			ClosesAt: poll.CloseTime(),
		}
		if !s.dispatcher.Dispatch(*poll.ChannelURL, event) {
			continue // retried next tick
		}
		if _, err := s.store.MarkOpenSent(poll.ID, now); err != nil {
			s.log.Error().Err(err).Str("poll_id", poll.ID).Msg("open notification mark failed")
			continue
		}
		s.log.Info().Str("poll_id", poll.ID).Msg("open notification sent")
	}
}

// tieRunoffPass examines closed polls that have never been checked for
// a tie and spawns a runoff for those that ended in one. Polls with no
// ballots or a clean winner are quietly marked handled.
func (s *Scheduler) tieRunoffPass(now time.Time) {
	polls, err := s.store.ListDueTieRunoff()
	if err != nil {
		s.log.Error().Err(err).Msg("tie-runoff listing failed")
		return
	}
	for _, poll := range polls {
		_, err := s.TriggerTieRunoff(poll.ID, now)
		switch err {
		case nil:
			// runoff spawned
		case models.ErrNoBallots, models.ErrNotATie, models.ErrRunoffExists:
			// expected steady states, marked handled inside
		default:
			s.log.Error().Err(err).Str("poll_id", poll.ID).Msg("tie-runoff check failed")
		}
	}
}

// TriggerTieRunoff creates a runoff poll seeded with exactly the tied
// options and links it back to the source. It is shared by the
// scheduled pass and the admin endpoint; both go through the same
// set-once link guard, so a poll can never get two runoffs. Returns
// the runoff poll, or a specific rejection error.
func (s *Scheduler) TriggerTieRunoff(pollID string, now time.Time) (models.Poll, error) {
	source, err := s.store.GetPoll(pollID)
	if err != nil {
		return models.Poll{}, err
	}
	if source.Status != models.StatusClosed {
		return models.Poll{}, models.ErrPollNotClosed
	}
	if source.RunoffID != nil {
		return models.Poll{}, models.ErrRunoffExists
	}

	options, err := s.store.GetOptions(source.ID)
	if err != nil {
		return models.Poll{}, err
	}
	rankings, err := s.store.ListRankings(source.ID)
	if err != nil {
		return models.Poll{}, err
	}
	if len(rankings) == 0 {
		if _, err := s.store.MarkRunoffChecked(source.ID, now); err != nil {
			return models.Poll{}, err
		}
		return models.Poll{}, models.ErrNoBallots
	}

	result := irv.Tabulate(options, rankings)
	if !result.IsTie {
		if _, err := s.store.MarkRunoffChecked(source.ID, now); err != nil {
			return models.Poll{}, err
		}
		return models.Poll{}, models.ErrNotATie
	}

	runoffID, err := s.mintID(source.Title+" runoff", now, nil, slug.DefaultTemplate)
	if err != nil {
		return models.Poll{}, err
	}

	runoff := models.Poll{
		ID:         runoffID,
		Title:      source.Title + " (runoff)",
		Status:     models.StatusOpen,
		ChannelURL: source.ChannelURL,
		OpensAt:    now,
		RunoffOf:   &source.ID,
		CreatedAt:  now,
	}
	// A timed source gets a runoff of the same length.
	if source.AutoCloseAt != nil {
		closeAt := now.Add(source.AutoCloseAt.Sub(source.OpensAt))
		runoff.AutoCloseAt = &closeAt
	}

	if err := s.store.CreatePoll(runoff, result.TiedOptions); err != nil {
		return models.Poll{}, fmt.Errorf("failed to create runoff: %w", err)
	}

	claimed, err := s.store.ClaimRunoff(source.ID, runoffID, now)
	if err != nil {
		return models.Poll{}, err
	}
	if !claimed {
		// Lost the race to a concurrent trigger; ours is surplus.
		if err := s.store.DeletePoll(runoffID); err != nil {
			s.log.Error().Err(err).Str("poll_id", runoffID).Msg("failed to remove surplus runoff")
		}
		return models.Poll{}, models.ErrRunoffExists
	}

	s.log.Info().
		Str("poll_id", source.ID).
		Str("runoff_id", runoffID).
		Strs("tied_options", result.TiedOptions).
		Msg("runoff created")

	if source.ChannelURL != nil {
		s.dispatcher.Dispatch(*source.ChannelURL, notify.Event{
			Type:        notify.EventRunoffRequired,
			PollID:      source.ID,
			Title:       source.Title,
			URL:         s.pollURL(runoffID),
			TiedOptions: result.TiedOptions,
			BallotCount: result.TotalBallots,
			RunoffID:    runoffID,
		})
	}

	return runoff, nil
}

// recurrencePass spawns the next instance for recurring groups whose
// anchor has arrived, at most MaxPerTick per tick. A group whose
// latest instance is still open is skipped without advancing, so it is
// re-examined next tick.
func (s *Scheduler) recurrencePass(now time.Time) {
	due, err := s.store.ListDueRecurrences(now, s.cfg.MaxPerTick)
	if err != nil {
		s.log.Error().Err(err).Msg("recurrence listing failed")
		return
	}
	for _, rec := range due {
		if err := s.spawnSuccessor(rec, now); err != nil {
			s.log.Error().Err(err).Str("recurrence_id", rec.ID).Msg("successor spawn failed")
		}
	}
}

func (s *Scheduler) spawnSuccessor(rec models.Recurrence, now time.Time) error {
	open, err := s.store.HasOpenPollInGroup(rec.ID)
	if err != nil {
		return err
	}
	if open {
		return nil // wait for the current instance to close
	}

	latest, err := s.store.LatestPollInGroup(rec.ID)
	if err != nil {
		return err
	}
	options, err := s.store.GetOptions(latest.ID)
	if err != nil {
		return err
	}

	start := rec.NextStart
	closeAt := start.Add(time.Duration(rec.DurationHours) * time.Hour)

	id, err := s.mintID(latest.Title, closeAt, &start, rec.IDTemplate)
	if err != nil {
		return err
	}

	// Claim the anchor before creating; a concurrent spawner losing
	// this update skips its duplicate successor.
	next := start.Add(time.Duration(rec.PeriodDays) * 24 * time.Hour)
	advanced, err := s.store.AdvanceRecurrence(rec.ID, rec.NextStart, next)
	if err != nil {
		return err
	}
	if !advanced {
		return nil
	}

	successor := models.Poll{
		ID:           id,
		Title:        latest.Title,
		Status:       models.StatusOpen,
		ChannelURL:   latest.ChannelURL,
		OpensAt:      start,
		AutoCloseAt:  &closeAt,
		RecurrenceID: &rec.ID,
		CreatedAt:    now,
	}
	if err := s.store.CreatePoll(successor, options); err != nil {
		return fmt.Errorf("failed to create successor: %w", err)
	}

	s.log.Info().
		Str("recurrence_id", rec.ID).
		Str("poll_id", id).
		Time("opens_at", start).
		Time("auto_close_at", closeAt).
		Msg("successor spawned")
	return nil
}

// mintID builds a slug from the template and resolves collisions
// against stored polls.
func (s *Scheduler) mintID(title string, closeAt time.Time, startAt *time.Time, format string) (string, error) {
	candidate := slug.BuildID(title, closeAt, startAt, format)
	return slug.UniqueID(candidate, s.store.PollExists)
}

func (s *Scheduler) pollURL(pollID string) string {
	return s.cfg.BaseURL + "/polls/" + pollID
}
