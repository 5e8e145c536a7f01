package report

import (
	"time"

	"github.com/google/uuid"
)

// Report maps to the reports table. The file itself lives in the blobstore;
// BlobID references it.
type Report struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Type        string    `db:"type" json:"type"`
	DoctorName  *string   `db:"doctor_name" json:"doctor_name,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	BlobID      string    `db:"blob_id" json:"-"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
