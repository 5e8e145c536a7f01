package reminder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/symptoseek/symptoseek/internal/platform/scheduler"
)

var (
	ErrNotFound  = errors.New("reminder not found")
	ErrForbidden = errors.New("reminder belongs to another user")
)

var validTypes = map[string]bool{
	"medication":  true,
	"appointment": true,
	"exercise":    true,
	"other":       true,
}

var validRecurrences = map[string]bool{
	"none":    true,
	"daily":   true,
	"weekly":  true,
	"monthly": true,
}

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// JobScheduler is the slice of the scheduler the reminder service drives.
type JobScheduler interface {
	Schedule(rem *scheduler.Reminder)
	Cancel(id string)
}

type Service struct {
	reminders ReminderRepository
	jobs      JobScheduler
}

func NewService(reminders ReminderRepository, jobs JobScheduler) *Service {
	return &Service{reminders: reminders, jobs: jobs}
}

func validate(r *Reminder) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Type == "" {
		r.Type = "other"
	}
	if !validTypes[r.Type] {
		return fmt.Errorf("invalid type: %s", r.Type)
	}
	if !timePattern.MatchString(r.Time) {
		return fmt.Errorf("time must be in HH:MM 24-hour format")
	}
	if r.Recurrence == "" {
		r.Recurrence = "none"
	}
	if !validRecurrences[r.Recurrence] {
		return fmt.Errorf("invalid recurrence: %s", r.Recurrence)
	}
	if r.Recurrence == "weekly" && len(r.DaysOfWeek) == 0 {
		return fmt.Errorf("weekly recurrence requires days_of_week")
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("days_of_week values must be 0-6, got %d", d)
		}
	}
	if r.Recurrence != "none" {
		r.Date = nil
	}
	return nil
}

func toJob(r *Reminder) *scheduler.Reminder {
	var desc string
	if r.Description != nil {
		desc = *r.Description
	}
	return &scheduler.Reminder{
		ID:          r.ID.String(),
		UserID:      r.UserID.String(),
		Title:       r.Title,
		Description: desc,
		Type:        r.Type,
		Time:        r.Time,
		Completed:   r.Completed,
	}
}

// Create validates, persists, and schedules a job for the reminder.
func (s *Service) Create(ctx context.Context, r *Reminder) error {
	if err := validate(r); err != nil {
		return err
	}
	if err := s.reminders.Create(ctx, r); err != nil {
		return err
	}
	s.jobs.Schedule(toJob(r))
	return nil
}

// Get returns the reminder, enforcing ownership.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Reminder, error) {
	r, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

// Update applies changes and keeps the job table in sync: completed reminders
// lose their job, active ones are rescheduled (replacing the old timer when
// the time changed).
func (s *Service) Update(ctx context.Context, userID uuid.UUID, upd *Reminder) error {
	existing, err := s.Get(ctx, upd.ID, userID)
	if err != nil {
		return err
	}
	upd.UserID = existing.UserID
	if err := validate(upd); err != nil {
		return err
	}
	if err := s.reminders.Update(ctx, upd); err != nil {
		return err
	}

	if upd.Completed {
		s.jobs.Cancel(upd.ID.String())
	} else {
		s.jobs.Schedule(toJob(upd))
	}
	return nil
}

// Delete cancels the job first, then removes the row.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	s.jobs.Cancel(id.String())
	return s.reminders.Delete(ctx, id)
}

// ListForUser returns the user's reminders.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Reminder, int, error) {
	return s.reminders.ListByUser(ctx, userID, limit, offset)
}

// SchedulerSource adapts the repository to the scheduler's read interface.
type SchedulerSource struct {
	reminders ReminderRepository
}

func NewSchedulerSource(reminders ReminderRepository) *SchedulerSource {
	return &SchedulerSource{reminders: reminders}
}

func (s *SchedulerSource) ReminderByID(ctx context.Context, id string) (*scheduler.Reminder, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, scheduler.ErrNotFound
	}
	r, err := s.reminders.GetByID(ctx, rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scheduler.ErrNotFound
		}
		return nil, err
	}
	return toJob(r), nil
}

func (s *SchedulerSource) ActiveReminders(ctx context.Context) ([]*scheduler.Reminder, error) {
	rems, err := s.reminders.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*scheduler.Reminder, 0, len(rems))
	for _, r := range rems {
		out = append(out, toJob(r))
	}
	return out, nil
}
