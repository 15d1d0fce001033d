package memory

import (
	"context"
	"time"

	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/google/uuid"
)

// RideRepository implements ride.Repository
type RideRepository struct {
	s *Store
}

func (r *RideRepository) CreateLegs(ctx context.Context, legs ...*ride.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, leg := range legs {
		if leg.ID == uuid.Nil {
			leg.ID = uuid.New()
		}
		r.s.rides[leg.ID] = copyRide(leg)
	}
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	return copyRide(stored), nil
}

func (r *RideRepository) SetDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID, status ride.Status) (*ride.Ride, error) {
	return r.update(id, func(stored *ride.Ride) {
		if driverID != nil {
			d := *driverID
			stored.DriverID = &d
		} else {
			stored.DriverID = nil
		}
		stored.Status = status
	})
}

func (r *RideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ride.Status) (*ride.Ride, error) {
	return r.update(id, func(stored *ride.Ride) {
		stored.Status = status
	})
}

func (r *RideRepository) update(id uuid.UUID, apply func(*ride.Ride)) (*ride.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	apply(stored)
	stored.UpdatedAt = time.Now()
	return copyRide(stored), nil
}

func (r *RideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rides[id]; !ok {
		return ride.ErrRideNotFound
	}
	delete(r.s.rides, id)
	return nil
}

func (r *RideRepository) List(ctx context.Context, filter ride.ListFilter) ([]*ride.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*ride.Ride, 0)
	for _, stored := range r.s.rides {
		if filter.OwnerID != nil && stored.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.DriverID != nil && (stored.DriverID == nil || *stored.DriverID != *filter.DriverID) {
			continue
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		out = append(out, copyRide(stored))
	}
	return out, nil
}

func (r *RideRepository) Count(ctx context.Context, filter ride.CountFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, stored := range r.s.rides {
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		if filter.CreatedSince != nil && stored.CreatedAt.Before(*filter.CreatedSince) {
			continue
		}
		n++
	}
	return n, nil
}
