package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctors table (public directory).
type Doctor struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Speciality    string    `db:"speciality" json:"speciality"`
	Hospital      *string   `db:"hospital" json:"hospital,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	City          *string   `db:"city" json:"city,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	VisitingHours *string   `db:"visiting_hours" json:"visiting_hours,omitempty"`
	Rating        *float64  `db:"rating" json:"rating,omitempty"`
	ImageSource   *string   `db:"image_source" json:"image_source,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SearchFilter narrows directory listings.
type SearchFilter struct {
	Speciality string
	City       string
	Name       string // partial match
}
