package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/google/uuid"
)

// DriverRepository implements driver.Repository
type DriverRepository struct {
	s *Store
}

func (r *DriverRepository) Create(ctx context.Context, d *driver.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	stored := *d
	r.s.drivers[d.ID] = &stored
	*d = *r.view(&stored)
	return nil
}

func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return r.view(d), nil
}

func (r *DriverRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*driver.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.drivers {
		if d.UserID == userID {
			return r.view(d), nil
		}
	}
	return nil, driver.ErrDriverNotFound
}

func (r *DriverRepository) List(ctx context.Context) ([]*driver.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*driver.Driver, 0, len(r.s.drivers))
	for _, d := range r.s.drivers {
		out = append(out, r.view(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *DriverRepository) UpdateInfo(ctx context.Context, id uuid.UUID, phone string, vehicle driver.Vehicle) (*driver.Driver, error) {
	return r.update(id, func(d *driver.Driver) {
		d.Phone = phone
		d.Vehicle = vehicle
	})
}

func (r *DriverRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*driver.Driver, error) {
	return r.update(id, func(d *driver.Driver) {
		d.IsAvailable = available
	})
}

func (r *DriverRepository) update(id uuid.UUID, apply func(*driver.Driver)) (*driver.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	apply(d)
	d.UpdatedAt = time.Now()
	return r.view(d), nil
}

func (r *DriverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[id]; !ok {
		return driver.ErrDriverNotFound
	}
	delete(r.s.drivers, id)
	return nil
}

func (r *DriverRepository) Count(ctx context.Context, filter driver.CountFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, d := range r.s.drivers {
		if filter.Available != nil && d.IsAvailable != *filter.Available {
			continue
		}
		n++
	}
	return n, nil
}

// view copies d, filling name and email from the owning user. Callers hold the lock.
func (r *DriverRepository) view(d *driver.Driver) *driver.Driver {
	c := *d
	if u, ok := r.s.users[d.UserID]; ok {
		c.Name = u.Name
		c.Email = u.Email
	}
	return &c
}
