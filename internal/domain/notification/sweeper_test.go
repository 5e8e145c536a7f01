package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/symptoseek/symptoseek/internal/platform/mailer"
)

type sweepUsers struct {
	emails map[string]string
}

func (u *sweepUsers) ContactByID(_ context.Context, userID string) (string, string, error) {
	return "Alice", u.emails[userID], nil
}

func newTestSweeper(repo NotificationRepository, emails map[string]string, opts ...SweeperOption) (*Sweeper, *mailer.MockSender) {
	mock := &mailer.MockSender{}
	s := NewSweeper(repo, &sweepUsers{emails: emails}, mock, zerolog.Nop(), opts...)
	return s, mock
}

func strPtr(s string) *string { return &s }

func TestSweepMainFireCompletesOneOff(t *testing.T) {
	repo := newMockNotificationRepo()
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n := validNotification(userID)
	n.ScheduleTime = now.Add(30 * time.Second)
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, mock := newTestSweeper(repo, map[string]string{userID.String(): "a@example.com"})
	s.sweep(context.Background(), now)

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Subject, "Evening dose") {
		t.Errorf("unexpected subject %q", calls[0].Subject)
	}

	got, _ := repo.GetByID(context.Background(), n.ID)
	if !got.Completed {
		t.Error("one-off notification should complete after delivery")
	}

	// second sweep must not resend
	s.sweep(context.Background(), now)
	if len(mock.Calls()) != 1 {
		t.Error("completed notification must not fire again")
	}
}

func TestSweepRecurringRollsForward(t *testing.T) {
	repo := newMockNotificationRepo()
	userID := uuid.New()
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		pattern string
		want    time.Time
	}{
		{"daily", time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
		{"weekly", time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)},
		// Jan 31 + 1 month normalizes per the calendar
		{"monthly", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			n := validNotification(userID)
			n.ScheduleTime = now
			n.Recurring = true
			n.Pattern = strPtr(tc.pattern)
			n.AdvanceNotice = true
			n.AdvanceNoticeMinutes = 15
			n.AdvanceSent = true
			if err := repo.Create(context.Background(), n); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			s, _ := newTestSweeper(repo, map[string]string{userID.String(): "a@example.com"})
			s.sweep(context.Background(), now)

			got, _ := repo.GetByID(context.Background(), n.ID)
			if got.Completed {
				t.Error("recurring notification must not complete")
			}
			if !got.ScheduleTime.Equal(tc.want) {
				t.Errorf("expected next %v, got %v", tc.want, got.ScheduleTime)
			}
			if got.AdvanceSent {
				t.Error("rollover must reset advance_sent")
			}
		})
	}
}

func TestSweepAdvanceNotice(t *testing.T) {
	repo := newMockNotificationRepo()
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n := validNotification(userID)
	n.ScheduleTime = now.Add(10 * time.Minute)
	n.AdvanceNotice = true
	n.AdvanceNoticeMinutes = 15
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, mock := newTestSweeper(repo, map[string]string{userID.String(): "a@example.com"})
	s.sweep(context.Background(), now)

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 advance email, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Subject, "Upcoming") {
		t.Errorf("unexpected subject %q", calls[0].Subject)
	}
	if !strings.Contains(calls[0].Body, "10 minutes") {
		t.Errorf("body should state the lead time: %q", calls[0].Body)
	}

	got, _ := repo.GetByID(context.Background(), n.ID)
	if !got.AdvanceSent {
		t.Error("advance_sent should persist after the heads-up")
	}
	if got.Completed {
		t.Error("advance fire must not complete the notification")
	}

	// next tick inside the window: no duplicate advance
	s.sweep(context.Background(), now.Add(time.Minute))
	if len(mock.Calls()) != 1 {
		t.Error("advance notice must fire at most once")
	}

	// at the scheduled minute the main email goes out
	s.sweep(context.Background(), n.ScheduleTime)
	calls = mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected main email after advance, got %d calls", len(calls))
	}
	if !strings.Contains(calls[1].Subject, "Notification:") {
		t.Errorf("unexpected main subject %q", calls[1].Subject)
	}
}

func TestSweepOutsideAdvanceWindow(t *testing.T) {
	repo := newMockNotificationRepo()
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n := validNotification(userID)
	n.ScheduleTime = now.Add(time.Hour)
	n.AdvanceNotice = true
	n.AdvanceNoticeMinutes = 15
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, mock := newTestSweeper(repo, map[string]string{userID.String(): "a@example.com"})
	s.sweep(context.Background(), now)

	if len(mock.Calls()) != 0 {
		t.Error("nothing should fire an hour before a 15-minute advance window")
	}
}

func TestSweepSkipsReadNotification(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n := validNotification(userID)
	n.ScheduleTime = now.Add(30 * time.Second)
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.MarkRead(context.Background(), n.ID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Completed {
		t.Fatalf("marking read must complete the notification, got completed=%v", got.Completed)
	}

	s, mock := newTestSweeper(repo, map[string]string{userID.String(): "a@example.com"})
	s.sweep(context.Background(), now)

	if len(mock.Calls()) != 0 {
		t.Errorf("read notification must not fire, got %d email(s)", len(mock.Calls()))
	}
}

func TestSweepSkipsOwnerWithoutEmail(t *testing.T) {
	repo := newMockNotificationRepo()
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n := validNotification(userID)
	n.ScheduleTime = now
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, mock := newTestSweeper(repo, map[string]string{})
	s.sweep(context.Background(), now)

	if len(mock.Calls()) != 0 {
		t.Error("no email should go to an owner without an address")
	}
	got, _ := repo.GetByID(context.Background(), n.ID)
	if got.Completed {
		t.Error("skipped notification must stay pending")
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	repo := newMockNotificationRepo()
	u1, u2 := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n1 := validNotification(u1)
	n1.ScheduleTime = now
	n2 := validNotification(u2)
	n2.ScheduleTime = now
	for _, n := range []*Notification{n1, n2} {
		if err := repo.Create(context.Background(), n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	mock := &mailer.MockSender{ShouldFail: true, FailError: "relay down"}
	s := NewSweeper(repo, &sweepUsers{emails: map[string]string{
		u1.String(): "a@example.com",
		u2.String(): "b@example.com",
	}}, mock, zerolog.Nop())

	s.sweep(context.Background(), now)

	if len(mock.Calls()) != 2 {
		t.Errorf("a failed send must not stop the tick, got %d attempts", len(mock.Calls()))
	}
	got, _ := repo.GetByID(context.Background(), n1.ID)
	if got.Completed {
		t.Error("failed delivery must not complete the notification")
	}
}

func TestSweepNotifyHook(t *testing.T) {
	repo := newMockNotificationRepo()
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n := validNotification(userID)
	n.ScheduleTime = now
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotUser string
	var gotAdvance bool
	s, _ := newTestSweeper(repo, map[string]string{userID.String(): "a@example.com"},
		WithNotify(func(userID string, _ *Notification, advance bool) {
			gotUser = userID
			gotAdvance = advance
		}))
	s.sweep(context.Background(), now)

	if gotUser != userID.String() || gotAdvance {
		t.Errorf("unexpected hook call: user=%s advance=%v", gotUser, gotAdvance)
	}
}

func TestSweeperStartStop(t *testing.T) {
	repo := newMockNotificationRepo()
	s, _ := newTestSweeper(repo, nil, WithInterval(10*time.Millisecond))

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
