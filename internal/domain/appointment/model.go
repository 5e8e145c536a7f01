package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment maps to the appointments table. Status moves from pending to
// approved or rejected by an admin; the owner may cancel at any point before
// the visit.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DateTime  time.Time `db:"date_time" json:"date_time"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	Status    string    `db:"status" json:"status"`
	AdminNote *string   `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
