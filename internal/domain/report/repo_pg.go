package report

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

const reportCols = `id, user_id, title, type, doctor_name, notes, blob_id,
	file_name, content_type, file_size, created_at`

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Type, &r.DoctorName,
		&r.Notes, &r.BlobID, &r.FileName, &r.ContentType, &r.FileSize,
		&r.CreatedAt)
	return &r, err
}

func (p *reportRepoPG) Create(ctx context.Context, r *Report) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO reports (id, user_id, title, type, doctor_name, notes,
			blob_id, file_name, content_type, file_size)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.UserID, r.Title, r.Type, r.DoctorName, r.Notes,
		r.BlobID, r.FileName, r.ContentType, r.FileSize)
	return err
}

func (p *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(p.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
}

func (p *reportRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	return err
}

func (p *reportRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, reportType string, limit, offset int) ([]*Report, int, error) {
	if reportType != "" {
		var total int
		if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE user_id = $1 AND type = $2`,
			userID, reportType).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err := p.pool.Query(ctx, `SELECT `+reportCols+` FROM reports
			WHERE user_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
			userID, reportType, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		defer rows.Close()
		return collect(rows, total)
	}

	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, `SELECT `+reportCols+` FROM reports
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]*Report, int, error) {
	var items []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, nil
}
