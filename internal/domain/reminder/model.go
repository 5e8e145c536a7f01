package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Reminder maps to the reminders table. Time is a wall-clock "HH:MM" string;
// the scheduler fires it daily in the configured zone. Date is only
// meaningful for one-off reminders (recurrence "none").
type Reminder struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Type        string     `db:"type" json:"type"`
	Time        string     `db:"time" json:"time"`
	Date        *time.Time `db:"date" json:"date,omitempty"`
	Recurrence  string     `db:"recurrence" json:"recurrence"`
	DaysOfWeek  []int      `db:"days_of_week" json:"days_of_week,omitempty"`
	Completed   bool       `db:"completed" json:"completed"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
