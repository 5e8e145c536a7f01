package reminder

import (
	"context"

	"github.com/google/uuid"
)

type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Reminder, int, error)
	ListActive(ctx context.Context) ([]*Reminder, error)
}
