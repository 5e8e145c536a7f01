package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, name, speciality, hospital, address, city, phone,
	email, visiting_hours, rating, image_source, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Speciality, &d.Hospital, &d.Address,
		&d.City, &d.Phone, &d.Email, &d.VisitingHours, &d.Rating,
		&d.ImageSource, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, speciality, hospital, address, city,
			phone, email, visiting_hours, rating, image_source)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.Name, d.Speciality, d.Hospital, d.Address, d.City,
		d.Phone, d.Email, d.VisitingHours, d.Rating, d.ImageSource)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctors SET name=$2, speciality=$3, hospital=$4, address=$5,
			city=$6, phone=$7, email=$8, visiting_hours=$9, rating=$10,
			image_source=$11, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Speciality, d.Hospital, d.Address, d.City,
		d.Phone, d.Email, d.VisitingHours, d.Rating, d.ImageSource)
	return err
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, filter SearchFilter, limit, offset int) ([]*Doctor, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	n := 0
	if filter.Speciality != "" {
		n++
		where = append(where, fmt.Sprintf("speciality ILIKE $%d", n))
		args = append(args, filter.Speciality)
	}
	if filter.City != "" {
		n++
		where = append(where, fmt.Sprintf("city ILIKE $%d", n))
		args = append(args, filter.City)
	}
	if filter.Name != "" {
		n++
		where = append(where, fmt.Sprintf("name ILIKE $%d", n))
		args = append(args, "%"+filter.Name+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		doctorCols, cond, n+1, n+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
