// Package postgres implements the domain repositories on PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          UUID PRIMARY KEY,
		subject     TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		roles       TEXT[] NOT NULL DEFAULT '{customer}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id             UUID PRIMARY KEY,
		user_id        UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		phone          TEXT NOT NULL DEFAULT '',
		vehicle_make   TEXT NOT NULL DEFAULT '',
		vehicle_model  TEXT NOT NULL DEFAULT '',
		vehicle_color  TEXT NOT NULL DEFAULT '',
		vehicle_plate  TEXT NOT NULL DEFAULT '',
		is_available   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// driver_id has no foreign key: deleting a driver leaves the reference dangling
	// and listings render it without driver details
	`CREATE TABLE IF NOT EXISTS rides (
		id                  UUID PRIMARY KEY,
		owner_id            UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name                TEXT NOT NULL,
		phone               TEXT NOT NULL,
		pickup_location     TEXT NOT NULL,
		drop_location       TEXT NOT NULL,
		pickup_coordinates  JSONB,
		drop_coordinates    JSONB,
		ride_date           DATE NOT NULL,
		ride_time           TEXT NOT NULL,
		is_private          BOOLEAN NOT NULL DEFAULT FALSE,
		notes               TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'pending',
		return_ride         BOOLEAN NOT NULL DEFAULT FALSE,
		return_date         DATE,
		return_time         TEXT NOT NULL DEFAULT '',
		driver_id           UUID,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_owner_id ON rides(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_driver_id ON rides(driver_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_status ON rides(status)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_created_at ON rides(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
}

// EnsureSchema creates the tables and indexes if they are missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// whereClause joins conditions with AND; empty when there are none
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
