package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type notificationRepoPG struct{ pool *pgxpool.Pool }

func NewNotificationRepoPG(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepoPG{pool: pool}
}

const notificationCols = `id, user_id, type, title, description, schedule_time,
	recurring, pattern, advance_notice, advance_notice_minutes, advance_sent,
	completed, created_at, updated_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Description,
		&n.ScheduleTime, &n.Recurring, &n.Pattern, &n.AdvanceNotice,
		&n.AdvanceNoticeMinutes, &n.AdvanceSent, &n.Completed,
		&n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, description,
			schedule_time, recurring, pattern, advance_notice,
			advance_notice_minutes, advance_sent, completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		n.ID, n.UserID, n.Type, n.Title, n.Description, n.ScheduleTime,
		n.Recurring, n.Pattern, n.AdvanceNotice, n.AdvanceNoticeMinutes,
		n.AdvanceSent, n.Completed)
	return err
}

func (r *notificationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return scanNotification(r.pool.QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE id = $1`, id))
}

func (r *notificationRepoPG) Update(ctx context.Context, n *Notification) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications SET type=$2, title=$3, description=$4,
			schedule_time=$5, recurring=$6, pattern=$7, advance_notice=$8,
			advance_notice_minutes=$9, advance_sent=$10, completed=$11,
			updated_at=NOW()
		WHERE id = $1`,
		n.ID, n.Type, n.Title, n.Description, n.ScheduleTime, n.Recurring,
		n.Pattern, n.AdvanceNotice, n.AdvanceNoticeMinutes, n.AdvanceSent,
		n.Completed)
	return err
}

func (r *notificationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	return err
}

func (r *notificationRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+notificationCols+` FROM notifications
		WHERE user_id = $1 ORDER BY schedule_time DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, nil
}

func (r *notificationRepoPG) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND completed = false AND schedule_time <= $2`,
		userID, now).Scan(&count)
	return count, err
}

func (r *notificationRepoPG) Due(ctx context.Context, from, to time.Time) ([]*Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationCols+` FROM notifications
		WHERE completed = false AND (
			(schedule_time >= $1 AND schedule_time < $2)
			OR (advance_notice AND NOT advance_sent
				AND $1 >= schedule_time - advance_notice_minutes * interval '1 minute'
				AND $1 < schedule_time)
		)`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}
