package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/symptoseek/symptoseek/internal/platform/blobstore"
)

var (
	ErrNotFound  = errors.New("report not found")
	ErrForbidden = errors.New("report belongs to another user")
)

var validTypes = map[string]bool{
	"lab-report":   true,
	"radiology":    true,
	"prescription": true,
	"other":        true,
}

type Service struct {
	reports ReportRepository
	blobs   blobstore.Store
}

func NewService(reports ReportRepository, blobs blobstore.Store) *Service {
	return &Service{reports: reports, blobs: blobs}
}

// UploadInput carries report metadata alongside the file stream.
type UploadInput struct {
	Title       string
	Type        string
	DoctorName  *string
	Notes       *string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Upload stores the file in the blobstore and the metadata row referencing it.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, in UploadInput) (*Report, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if in.Type == "" {
		in.Type = "other"
	}
	if !validTypes[in.Type] {
		return nil, fmt.Errorf("invalid type: %s", in.Type)
	}

	meta, err := s.blobs.Put(ctx, blobstore.Metadata{
		FileName:    in.FileName,
		ContentType: in.ContentType,
	}, in.Content)
	if err != nil {
		return nil, err
	}

	r := &Report{
		UserID:      userID,
		Title:       in.Title,
		Type:        in.Type,
		DoctorName:  in.DoctorName,
		Notes:       in.Notes,
		BlobID:      meta.ID,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		FileSize:    meta.Size,
	}
	if err := s.reports.Create(ctx, r); err != nil {
		_ = s.blobs.Delete(ctx, meta.ID)
		return nil, err
	}
	return r, nil
}

// Get returns the report, enforcing ownership.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

// Download returns the report's file stream with its metadata row.
func (s *Service) Download(ctx context.Context, id, userID uuid.UUID) (io.ReadCloser, *Report, error) {
	r, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.blobs.Get(ctx, r.BlobID)
	if err != nil {
		return nil, nil, err
	}
	return rc, r, nil
}

// Delete removes the metadata row and the stored file.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, r.BlobID); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		return err
	}
	return nil
}

// ListForUser returns the user's reports, optionally filtered by type.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, reportType string, limit, offset int) ([]*Report, int, error) {
	if reportType != "" && !validTypes[reportType] {
		return nil, 0, fmt.Errorf("invalid type: %s", reportType)
	}
	return s.reports.ListByUser(ctx, userID, reportType, limit, offset)
}
