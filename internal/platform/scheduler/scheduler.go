// Package scheduler maintains one background job per active reminder. Each
// job fires at the reminder's wall-clock time every day and emails the owner.
// Jobs are process-local; Initialize rebuilds the table from storage on boot.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/symptoseek/symptoseek/internal/platform/mailer"
)

// ErrNotFound is returned by a ReminderSource when the reminder no longer
// exists. The scheduler cancels the job when it sees this during a fire.
var ErrNotFound = errors.New("reminder not found")

// Reminder is the minimal view of a reminder the scheduler needs.
type Reminder struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Type        string
	Time        string
	Completed   bool
}

// ReminderSource loads reminders from storage.
type ReminderSource interface {
	ReminderByID(ctx context.Context, id string) (*Reminder, error)
	ActiveReminders(ctx context.Context) ([]*Reminder, error)
}

// UserSource resolves a reminder owner to a deliverable address.
type UserSource interface {
	ContactByID(ctx context.Context, userID string) (name, email string, err error)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NotifyFunc is invoked after a successful reminder fire, for live push.
type NotifyFunc func(userID string, rem *Reminder)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLocation sets the zone reminder times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithNotify registers a hook called after each successful fire.
func WithNotify(fn NotifyFunc) Option {
	return func(s *Scheduler) { s.notify = fn }
}

type job struct {
	cancel context.CancelFunc
}

// Scheduler owns the reminder job table.
type Scheduler struct {
	store  ReminderSource
	users  UserSource
	mail   mailer.EmailSender
	log    zerolog.Logger
	clock  Clock
	loc    *time.Location
	notify NotifyFunc

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// New creates a Scheduler with an empty job table.
func New(store ReminderSource, users UserSource, mail mailer.EmailSender, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		users: users,
		mail:  mail,
		log:   log.With().Str("component", "scheduler").Logger(),
		clock: realClock{},
		loc:   time.UTC,
		jobs:  make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule installs a daily job for the reminder, replacing any existing job
// for the same id. Reminders with a missing id or malformed time are logged
// and skipped.
func (s *Scheduler) Schedule(rem *Reminder) {
	if rem == nil || rem.ID == "" {
		s.log.Warn().Msg("schedule called without reminder id")
		return
	}
	t, err := time.Parse("15:04", rem.Time)
	if err != nil {
		s.log.Warn().Str("reminder_id", rem.ID).Str("time", rem.Time).Msg("invalid reminder time")
		return
	}
	hour, min := t.Hour(), t.Minute()

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if prev, ok := s.jobs[rem.ID]; ok {
		prev.cancel()
	}
	s.jobs[rem.ID] = &job{cancel: cancel}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, rem.ID, hour, min)

	s.log.Info().Str("reminder_id", rem.ID).Str("time", rem.Time).Msg("reminder job scheduled")
}

// Cancel stops and removes the job for the reminder id, if any.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.cancel()
		delete(s.jobs, id)
		s.log.Info().Str("reminder_id", id).Msg("reminder job cancelled")
	}
}

// Initialize loads all active reminders and schedules each. Safe to call
// again: existing jobs are replaced, never stacked.
func (s *Scheduler) Initialize(ctx context.Context) (int, error) {
	rems, err := s.store.ActiveReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reminders: %w", err)
	}
	n := 0
	for _, rem := range rems {
		if rem.Completed {
			continue
		}
		s.Schedule(rem)
		n++
	}
	s.log.Info().Int("count", n).Msg("scheduler initialized")
	return n, nil
}

// Jobs returns the scheduled reminder ids, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop cancels every job and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, j := range s.jobs {
		j.cancel()
		delete(s.jobs, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, id string, hour, min int) {
	defer s.wg.Done()
	for {
		wait := nextRun(s.clock.Now().In(s.loc), hour, min).Sub(s.clock.Now().In(s.loc))
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(wait):
			s.fire(ctx, id)
		}
	}
}

// nextRun returns the next occurrence of hour:min strictly after now.
func nextRun(now time.Time, hour, min int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) fire(ctx context.Context, id string) {
	rem, err := s.store.ReminderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info().Str("reminder_id", id).Msg("reminder gone, cancelling job")
			s.Cancel(id)
			return
		}
		s.log.Error().Err(err).Str("reminder_id", id).Msg("failed to load reminder")
		return
	}
	if rem.Completed {
		s.log.Debug().Str("reminder_id", id).Msg("reminder completed, skipping fire")
		return
	}

	name, email, err := s.users.ContactByID(ctx, rem.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("reminder_id", id).Str("user_id", rem.UserID).Msg("failed to load reminder owner")
		return
	}
	if email == "" {
		s.log.Warn().Str("reminder_id", id).Str("user_id", rem.UserID).Msg("reminder owner has no email")
		return
	}

	subject := fmt.Sprintf("Reminder: %s", rem.Title)
	body := reminderBody(name, rem)
	if err := s.mail.SendEmail(ctx, email, subject, body); err != nil {
		s.log.Error().Err(err).Str("reminder_id", id).Str("to", email).Msg("failed to send reminder email")
		return
	}
	s.log.Info().Str("reminder_id", id).Str("to", email).Msg("reminder email sent")

	if s.notify != nil {
		s.notify(rem.UserID, rem)
	}
}

func reminderBody(name string, rem *Reminder) string {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	body := fmt.Sprintf("%s,\n\nThis is your %s reminder: %s (scheduled for %s).\n",
		greeting, rem.Type, rem.Title, rem.Time)
	if rem.Description != "" {
		body += "\n" + rem.Description + "\n"
	}
	body += "\n- SymptoSeek"
	return body
}
