package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	// Due returns uncompleted notifications whose main window falls in
	// [from, to) or whose advance window contains from.
	Due(ctx context.Context, from, to time.Time) ([]*Notification, error)
}
