package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrForbidden = errors.New("appointment belongs to another user")
)

var validStatuses = map[string]bool{
	"pending":   true,
	"approved":  true,
	"rejected":  true,
	"cancelled": true,
}

type Service struct {
	appointments AppointmentRepository
}

func NewService(appointments AppointmentRepository) *Service {
	return &Service{appointments: appointments}
}

// Book creates a pending appointment for the user.
func (s *Service) Book(ctx context.Context, userID, doctorID uuid.UUID, dateTime time.Time, reason *string) (*Appointment, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if dateTime.Before(time.Now()) {
		return nil, fmt.Errorf("appointment time must be in the future")
	}
	a := &Appointment{
		UserID:   userID,
		DoctorID: doctorID,
		DateTime: dateTime,
		Reason:   reason,
		Status:   "pending",
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the appointment, enforcing ownership unless admin is set.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID, admin bool) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !admin && a.UserID != userID {
		return nil, ErrForbidden
	}
	return a, nil
}

// SetStatus applies an admin status decision with an optional note.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string, note *string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Status = status
	if note != nil {
		a.AdminNote = note
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel marks the owner's appointment cancelled.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID) error {
	a, err := s.Get(ctx, id, userID, false)
	if err != nil {
		return err
	}
	a.Status = "cancelled"
	return s.appointments.Update(ctx, a)
}

// ListForUser returns the user's own appointments.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByUser(ctx, userID, limit, offset)
}

// ListAll returns every appointment, optionally filtered by status. Admin only.
func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid status: %s", status)
	}
	return s.appointments.ListAll(ctx, status, limit, offset)
}
