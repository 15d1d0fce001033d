package postgres

import (
	"context"
	"database/sql"

	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, subject, name, email, roles, created_at, updated_at`

// UserRepository implements user.Repository
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*user.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject))
}

// Upsert relies on xmax = 0 to tell a fresh insert from a conflict update
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) (bool, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	var roles []string
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}

	var (
		stored   []string
		inserted bool
	)
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, subject, name, email, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (subject) DO UPDATE
			SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = NOW()
		RETURNING `+userColumns+`, (xmax = 0)
	`, u.ID, u.Subject, u.Name, u.Email, pq.Array(roles)).Scan(
		&u.ID, &u.Subject, &u.Name, &u.Email, pq.Array(&stored), &u.CreatedAt, &u.UpdatedAt, &inserted,
	)
	if err != nil {
		return false, err
	}
	u.Roles = toRoles(stored)
	return inserted, nil
}

func (r *UserRepository) UpdateRoles(ctx context.Context, id uuid.UUID, roles []user.Role) (*user.User, error) {
	values := make([]string, len(roles))
	for i, role := range roles {
		values[i] = string(role)
	}
	return scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET roles = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, pq.Array(values)))
}

func (r *UserRepository) Count(ctx context.Context, filter user.CountFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM users`
	var args []interface{}
	if filter.CreatedSince != nil {
		query += ` WHERE created_at >= $1`
		args = append(args, *filter.CreatedSince)
	}

	var n int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func scanUser(s scanner) (*user.User, error) {
	var (
		u     user.User
		roles []string
	)
	err := s.Scan(&u.ID, &u.Subject, &u.Name, &u.Email, pq.Array(&roles), &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Roles = toRoles(roles)
	return &u, nil
}

func toRoles(values []string) []user.Role {
	roles := make([]user.Role, len(values))
	for i, v := range values {
		roles[i] = user.Role(v)
	}
	return roles
}

var _ user.Repository = (*UserRepository)(nil)
