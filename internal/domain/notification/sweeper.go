package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/symptoseek/symptoseek/internal/platform/mailer"
)

// UserSource resolves a notification owner to a deliverable address.
type UserSource interface {
	ContactByID(ctx context.Context, userID string) (name, email string, err error)
}

// NotifyFunc is invoked after a notification email goes out, for live push.
type NotifyFunc func(userID string, n *Notification, advance bool)

// Sweeper runs the periodic notification delivery pass. Each tick it loads
// everything due in the next interval plus anything inside its advance-notice
// window, emails the owners, and advances or completes the rows.
type Sweeper struct {
	notifications NotificationRepository
	users         UserSource
	mail          mailer.EmailSender
	log           zerolog.Logger
	interval      time.Duration
	notify        NotifyFunc
	stop          chan struct{}
	done          chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithInterval overrides the sweep period.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.interval = d }
}

// WithNotify registers a hook called after each sent notification.
func WithNotify(fn NotifyFunc) SweeperOption {
	return func(s *Sweeper) { s.notify = fn }
}

// NewSweeper creates a Sweeper with a one-minute default interval.
func NewSweeper(repo NotificationRepository, users UserSource, mail mailer.EmailSender, log zerolog.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		notifications: repo,
		users:         users,
		mail:          mail,
		log:           log.With().Str("component", "sweeper").Logger(),
		interval:      time.Minute,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.log.Info().Dur("interval", s.interval).Msg("notification sweep started")
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(ctx, now)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the current tick to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
	s.log.Info().Msg("notification sweep stopped")
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	due, err := s.notifications.Due(ctx, now, now.Add(s.interval))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load due notifications")
		return
	}
	for _, n := range due {
		if err := s.process(ctx, n, now); err != nil {
			s.log.Error().Err(err).Str("notification_id", n.ID.String()).Msg("failed to process notification")
		}
	}
}

// process handles one due notification. A notification inside the current
// main window gets its delivery email and rollover; one that is only inside
// its advance window gets the heads-up email and the advance_sent flag.
func (s *Sweeper) process(ctx context.Context, n *Notification, now time.Time) error {
	name, email, err := s.users.ContactByID(ctx, n.UserID.String())
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	if email == "" {
		s.log.Warn().Str("notification_id", n.ID.String()).Msg("owner has no email, skipping")
		return nil
	}

	mainWindow := !n.ScheduleTime.Before(now) && n.ScheduleTime.Before(now.Add(s.interval))
	if mainWindow {
		return s.sendMain(ctx, n, name, email)
	}
	return s.sendAdvance(ctx, n, name, email, now)
}

func (s *Sweeper) sendAdvance(ctx context.Context, n *Notification, name, email string, now time.Time) error {
	mins := int(n.ScheduleTime.Sub(now).Round(time.Minute) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	subject := fmt.Sprintf("Upcoming: %s", n.Title)
	body := fmt.Sprintf("Hi %s,\n\nYour %s notification %q is coming up in about %d minutes (at %s).\n\n%s\n\n- SymptoSeek",
		name, n.Type, n.Title, mins, n.ScheduleTime.Format("15:04"), n.Description)
	if err := s.mail.SendEmail(ctx, email, subject, body); err != nil {
		return fmt.Errorf("send advance email: %w", err)
	}

	n.AdvanceSent = true
	if err := s.notifications.Update(ctx, n); err != nil {
		return fmt.Errorf("mark advance sent: %w", err)
	}
	s.log.Info().Str("notification_id", n.ID.String()).Int("minutes", mins).Msg("advance notice sent")

	if s.notify != nil {
		s.notify(n.UserID.String(), n, true)
	}
	return nil
}

func (s *Sweeper) sendMain(ctx context.Context, n *Notification, name, email string) error {
	subject := fmt.Sprintf("Notification: %s", n.Title)
	body := fmt.Sprintf("Hi %s,\n\nIt is time for your %s notification: %s\n\n%s\n\n- SymptoSeek",
		name, n.Type, n.Title, n.Description)
	if err := s.mail.SendEmail(ctx, email, subject, body); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}

	if n.Recurring && n.Pattern != nil {
		n.ScheduleTime = nextOccurrence(n.ScheduleTime, *n.Pattern)
		n.Completed = false
		n.AdvanceSent = false
	} else {
		n.Completed = true
	}
	if err := s.notifications.Update(ctx, n); err != nil {
		return fmt.Errorf("update after delivery: %w", err)
	}
	s.log.Info().Str("notification_id", n.ID.String()).Bool("recurring", n.Recurring).Msg("notification sent")

	if s.notify != nil {
		s.notify(n.UserID.String(), n, false)
	}
	return nil
}

// nextOccurrence advances t by one period. Monthly uses calendar months, so
// Jan 31 rolls to the normalized date AddDate produces rather than a fixed
// 30-day jump.
func nextOccurrence(t time.Time, pattern string) time.Time {
	switch pattern {
	case "daily":
		return t.AddDate(0, 0, 1)
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
