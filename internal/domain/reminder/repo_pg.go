package reminder

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reminderRepoPG struct{ pool *pgxpool.Pool }

func NewReminderRepoPG(pool *pgxpool.Pool) ReminderRepository {
	return &reminderRepoPG{pool: pool}
}

const reminderCols = `id, user_id, title, description, type, time, date,
	recurrence, days_of_week, completed, created_at, updated_at`

func scanReminder(row pgx.Row) (*Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Type,
		&r.Time, &r.Date, &r.Recurrence, &r.DaysOfWeek, &r.Completed,
		&r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (p *reminderRepoPG) Create(ctx context.Context, r *Reminder) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO reminders (id, user_id, title, description, type, time,
			date, recurrence, days_of_week, completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.UserID, r.Title, r.Description, r.Type, r.Time,
		r.Date, r.Recurrence, r.DaysOfWeek, r.Completed)
	return err
}

func (p *reminderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	return scanReminder(p.pool.QueryRow(ctx, `SELECT `+reminderCols+` FROM reminders WHERE id = $1`, id))
}

func (p *reminderRepoPG) Update(ctx context.Context, r *Reminder) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE reminders SET title=$2, description=$3, type=$4, time=$5,
			date=$6, recurrence=$7, days_of_week=$8, completed=$9, updated_at=NOW()
		WHERE id = $1`,
		r.ID, r.Title, r.Description, r.Type, r.Time, r.Date,
		r.Recurrence, r.DaysOfWeek, r.Completed)
	return err
}

func (p *reminderRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	return err
}

func (p *reminderRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Reminder, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.pool.Query(ctx, `SELECT `+reminderCols+` FROM reminders
		WHERE user_id = $1 ORDER BY time LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, nil
}

func (p *reminderRepoPG) ListActive(ctx context.Context) ([]*Reminder, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+reminderCols+` FROM reminders WHERE completed = false`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, nil
}
