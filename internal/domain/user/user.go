package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role is one of the closed set of account roles
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

// IsValid validates the role
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleDriver, RoleAdmin, RoleDeveloper:
		return true
	}
	return false
}

// ParseRoles validates and de-duplicates roles, keeping first-seen order.
func ParseRoles(values []string) ([]Role, error) {
	seen := make(map[Role]bool, len(values))
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		r := Role(v)
		if !r.IsValid() {
			return nil, ErrInvalidRole
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		roles = append(roles, r)
	}
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}
	return roles, nil
}

// User is an account keyed by the identity provider's subject id
type User struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"firebaseUID"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Summary is the owner projection attached to ride listings
type Summary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the owner projection
func (u *User) Summary() *Summary {
	return &Summary{Name: u.Name, Email: u.Email}
}

// CountFilter narrows user counts
type CountFilter struct {
	CreatedSince *time.Time
}

// Repository defines user persistence
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetBySubject(ctx context.Context, subject string) (*User, error)
	// Upsert inserts the user or refreshes name and email of an existing subject.
	// Roles of an existing user are left untouched.
	Upsert(ctx context.Context, u *User) (created bool, err error)
	UpdateRoles(ctx context.Context, id uuid.UUID, roles []Role) (*User, error)
	Count(ctx context.Context, filter CountFilter) (int64, error)
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
	ErrNoRoles      = errors.New("at least one role is required")
)
