package mailer

import (
	"context"
	"testing"
)

func TestMockSenderRecordsCalls(t *testing.T) {
	m := &MockSender{}
	if err := m.SendEmail(context.Background(), "a@example.com", "hi", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.SendEmail(context.Background(), "b@example.com", "yo", "body2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := m.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].To != "a@example.com" || calls[0].Subject != "hi" {
		t.Errorf("unexpected first call: %+v", calls[0])
	}
	if calls[1].To != "b@example.com" {
		t.Errorf("unexpected second call: %+v", calls[1])
	}
}

func TestMockSenderFailure(t *testing.T) {
	m := &MockSender{ShouldFail: true, FailError: "relay down"}
	err := m.SendEmail(context.Background(), "a@example.com", "hi", "body")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "relay down" {
		t.Errorf("unexpected error message: %v", err)
	}
	if len(m.Calls()) != 1 {
		t.Error("failed call should still be recorded")
	}
}

func TestSMTPSenderRejectsEmptyRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: "25", From: "noreply@example.com"})
	if err := s.SendEmail(context.Background(), "", "hi", "body"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: "25", From: "noreply@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SendEmail(ctx, "a@example.com", "hi", "body"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
