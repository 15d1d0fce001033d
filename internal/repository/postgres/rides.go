package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

const rideColumns = `id, owner_id, name, phone, pickup_location, drop_location,
	pickup_coordinates, drop_coordinates, ride_date, ride_time, is_private, notes,
	status, return_ride, return_date, return_time, driver_id, created_at, updated_at`

// RideRepository implements ride.Repository
type RideRepository struct {
	db *sql.DB
}

func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

// CreateLegs inserts all legs in one transaction so a round trip is never half-booked
func (r *RideRepository) CreateLegs(ctx context.Context, legs ...*ride.Ride) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, leg := range legs {
		if leg.ID == uuid.Nil {
			leg.ID = uuid.New()
		}
		pickup, err := encodeCoordinates(leg.PickupCoordinates)
		if err != nil {
			return err
		}
		drop, err := encodeCoordinates(leg.DropCoordinates)
		if err != nil {
			return err
		}

		var returnDate sql.NullString
		if leg.ReturnDate != nil {
			returnDate = sql.NullString{String: leg.ReturnDate.Format(dateLayout), Valid: true}
		}
		var driverID uuid.NullUUID
		if leg.DriverID != nil {
			driverID = uuid.NullUUID{UUID: *leg.DriverID, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO rides (`+rideColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, leg.ID, leg.OwnerID, leg.Name, leg.Phone, leg.PickupLocation, leg.DropLocation,
			pickup, drop, leg.Date.Format(dateLayout), leg.Time, leg.IsPrivate, leg.Notes,
			string(leg.Status), leg.ReturnRide, returnDate, leg.ReturnTime, driverID,
			leg.CreatedAt, leg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert ride %s: %w", leg.ID, err)
		}
	}

	return tx.Commit()
}

func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	return scanRide(row)
}

func (r *RideRepository) SetDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID, status ride.Status) (*ride.Ride, error) {
	var d uuid.NullUUID
	if driverID != nil {
		d = uuid.NullUUID{UUID: *driverID, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE rides SET driver_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+rideColumns, id, d, string(status))
	return scanRide(row)
}

func (r *RideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ride.Status) (*ride.Ride, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE rides SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+rideColumns, id, string(status))
	return scanRide(row)
}

func (r *RideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ride.ErrRideNotFound
	}
	return nil
}

func (r *RideRepository) List(ctx context.Context, filter ride.ListFilter) ([]*ride.Ride, error) {
	var conds []string
	var args []interface{}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.DriverID != nil {
		args = append(args, *filter.DriverID)
		conds = append(conds, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides`+whereClause(conds)+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ride.Ride
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (r *RideRepository) Count(ctx context.Context, filter ride.CountFilter) (int64, error) {
	var conds []string
	var args []interface{}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedSince != nil {
		args = append(args, *filter.CreatedSince)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rides`+whereClause(conds), args...).Scan(&n)
	return n, err
}

func scanRide(s scanner) (*ride.Ride, error) {
	var (
		rd         ride.Ride
		pickup     []byte
		drop       []byte
		status     string
		returnDate sql.NullTime
		driverID   uuid.NullUUID
	)
	err := s.Scan(
		&rd.ID, &rd.OwnerID, &rd.Name, &rd.Phone, &rd.PickupLocation, &rd.DropLocation,
		&pickup, &drop, &rd.Date, &rd.Time, &rd.IsPrivate, &rd.Notes,
		&status, &rd.ReturnRide, &returnDate, &rd.ReturnTime, &driverID,
		&rd.CreatedAt, &rd.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}

	rd.Status = ride.Status(status)
	rd.Date = ride.NormalizeDate(rd.Date)
	if returnDate.Valid {
		d := ride.NormalizeDate(returnDate.Time)
		rd.ReturnDate = &d
	}
	if driverID.Valid {
		id := driverID.UUID
		rd.DriverID = &id
	}
	if rd.PickupCoordinates, err = decodeCoordinates(pickup); err != nil {
		return nil, err
	}
	if rd.DropCoordinates, err = decodeCoordinates(drop); err != nil {
		return nil, err
	}
	return &rd, nil
}

func encodeCoordinates(c *ride.Coordinates) (interface{}, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeCoordinates(raw []byte) (*ride.Coordinates, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var c ride.Coordinates
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode coordinates: %w", err)
	}
	return &c, nil
}

var _ ride.Repository = (*RideRepository)(nil)
