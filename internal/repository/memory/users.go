package memory

import (
	"context"
	"time"

	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/google/uuid"
)

// UserRepository implements user.Repository
type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Subject == subject {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepository) Upsert(ctx context.Context, u *user.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for _, existing := range r.s.users {
		if existing.Subject == u.Subject {
			existing.Name = u.Name
			existing.Email = u.Email
			existing.UpdatedAt = now
			*u = *copyUser(existing)
			return false, nil
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.s.users[u.ID] = copyUser(u)
	return true, nil
}

func (r *UserRepository) UpdateRoles(ctx context.Context, id uuid.UUID, roles []user.Role) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	u.Roles = append([]user.Role(nil), roles...)
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (r *UserRepository) Count(ctx context.Context, filter user.CountFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, u := range r.s.users {
		if filter.CreatedSince != nil && u.CreatedAt.Before(*filter.CreatedSince) {
			continue
		}
		n++
	}
	return n, nil
}
