package postgres

import (
	"context"
	"database/sql"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/google/uuid"
)

// Name and email live on the user row
const driverSelect = `
	SELECT d.id, d.user_id, u.name, u.email, d.phone,
	       d.vehicle_make, d.vehicle_model, d.vehicle_color, d.vehicle_plate,
	       d.is_available, d.created_at, d.updated_at
	FROM drivers d
	JOIN users u ON u.id = d.user_id`

// DriverRepository implements driver.Repository
type DriverRepository struct {
	db *sql.DB
}

func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) Create(ctx context.Context, d *driver.Driver) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO drivers (id, user_id, phone, vehicle_make, vehicle_model, vehicle_color, vehicle_plate, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, d.ID, d.UserID, d.Phone, d.Vehicle.Make, d.Vehicle.Model, d.Vehicle.Color, d.Vehicle.PlateNumber, d.IsAvailable,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return err
}

func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	return scanDriver(r.db.QueryRowContext(ctx, driverSelect+` WHERE d.id = $1`, id))
}

func (r *DriverRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*driver.Driver, error) {
	return scanDriver(r.db.QueryRowContext(ctx, driverSelect+` WHERE d.user_id = $1`, userID))
}

func (r *DriverRepository) List(ctx context.Context) ([]*driver.Driver, error) {
	rows, err := r.db.QueryContext(ctx, driverSelect+` ORDER BY u.name, d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*driver.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DriverRepository) UpdateInfo(ctx context.Context, id uuid.UUID, phone string, vehicle driver.Vehicle) (*driver.Driver, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE drivers
		SET phone = $2, vehicle_make = $3, vehicle_model = $4, vehicle_color = $5, vehicle_plate = $6, updated_at = NOW()
		WHERE id = $1
	`, id, phone, vehicle.Make, vehicle.Model, vehicle.Color, vehicle.PlateNumber)
	if err := affectedOne(res, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *DriverRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*driver.Driver, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE drivers SET is_available = $2, updated_at = NOW() WHERE id = $1
	`, id, available)
	if err := affectedOne(res, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *DriverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	return affectedOne(res, err)
}

func (r *DriverRepository) Count(ctx context.Context, filter driver.CountFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM drivers`
	var args []interface{}
	if filter.Available != nil {
		query += ` WHERE is_available = $1`
		args = append(args, *filter.Available)
	}

	var n int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return driver.ErrDriverNotFound
	}
	return nil
}

func scanDriver(s scanner) (*driver.Driver, error) {
	var d driver.Driver
	err := s.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Email, &d.Phone,
		&d.Vehicle.Make, &d.Vehicle.Model, &d.Vehicle.Color, &d.Vehicle.PlateNumber,
		&d.IsAvailable, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, driver.ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var _ driver.Repository = (*DriverRepository)(nil)
