package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification maps to the notifications table. ScheduleTime is the absolute
// moment the notification is due; the sweep emails it in the tick containing
// that moment. Recurring notifications roll ScheduleTime forward by one
// period instead of completing.
type Notification struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	UserID               uuid.UUID `db:"user_id" json:"user_id"`
	Type                 string    `db:"type" json:"type"`
	Title                string    `db:"title" json:"title"`
	Description          string    `db:"description" json:"description"`
	ScheduleTime         time.Time `db:"schedule_time" json:"schedule_time"`
	Recurring            bool      `db:"recurring" json:"recurring"`
	Pattern              *string   `db:"pattern" json:"pattern,omitempty"`
	AdvanceNotice        bool      `db:"advance_notice" json:"advance_notice"`
	AdvanceNoticeMinutes int       `db:"advance_notice_minutes" json:"advance_notice_minutes"`
	AdvanceSent          bool      `db:"advance_sent" json:"advance_sent"`
	Completed            bool      `db:"completed" json:"completed"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
