package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound  = errors.New("notification not found")
	ErrForbidden = errors.New("notification belongs to another user")
)

var validTypes = map[string]bool{
	"medicine":    true,
	"exercise":    true,
	"appointment": true,
}

var validPatterns = map[string]bool{
	"daily":   true,
	"weekly":  true,
	"monthly": true,
}

// DefaultAdvanceMinutes is applied when advance notice is requested without
// an explicit lead time.
const DefaultAdvanceMinutes = 15

type Service struct {
	notifications NotificationRepository
}

func NewService(notifications NotificationRepository) *Service {
	return &Service{notifications: notifications}
}

func validate(n *Notification, now time.Time) error {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(n.Title) > 50 {
		return fmt.Errorf("title must be 50 characters or fewer")
	}
	if n.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(n.Description) > 500 {
		return fmt.Errorf("description must be 500 characters or fewer")
	}
	if !validTypes[n.Type] {
		return fmt.Errorf("invalid type: %s", n.Type)
	}
	if n.ScheduleTime.IsZero() {
		return fmt.Errorf("schedule_time is required")
	}
	if !n.ScheduleTime.After(now) {
		return fmt.Errorf("schedule_time must be in the future")
	}
	if n.Recurring {
		if n.Pattern == nil || !validPatterns[*n.Pattern] {
			return fmt.Errorf("recurring notifications require pattern daily, weekly, or monthly")
		}
	} else {
		n.Pattern = nil
	}
	if n.AdvanceNotice {
		if n.AdvanceNoticeMinutes == 0 {
			n.AdvanceNoticeMinutes = DefaultAdvanceMinutes
		}
		if n.AdvanceNoticeMinutes < 1 || n.AdvanceNoticeMinutes > 1440 {
			return fmt.Errorf("advance_notice_minutes must be between 1 and 1440")
		}
	} else {
		n.AdvanceNoticeMinutes = 0
	}
	return nil
}

// Create validates and persists a notification for the user.
func (s *Service) Create(ctx context.Context, n *Notification) error {
	n.Completed = false
	n.AdvanceSent = false
	if err := validate(n, time.Now()); err != nil {
		return err
	}
	return s.notifications.Create(ctx, n)
}

// Get returns the notification, enforcing ownership.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrForbidden
	}
	return n, nil
}

// MarkRead completes the user's notification. A read notification is done:
// the sweep never fires it again and it drops out of the unread count.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	n, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n.Completed {
		return n, nil
	}
	n.Completed = true
	if err := s.notifications.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes the user's notification.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}

// ListForUser returns the user's notifications, newest due first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.notifications.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount counts unread notifications that are already due.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifications.CountUnread(ctx, userID, time.Now())
}
