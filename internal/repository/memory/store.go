// Package memory provides map-backed repositories for tests and local runs
// without Postgres.
package memory

import (
	"sync"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/google/uuid"
)

// Store holds every aggregate behind one lock so driver profiles can read
// through to their user's name and email.
type Store struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*user.User
	drivers map[uuid.UUID]*driver.Driver
	rides   map[uuid.UUID]*ride.Ride
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*user.User),
		drivers: make(map[uuid.UUID]*driver.Driver),
		rides:   make(map[uuid.UUID]*ride.Ride),
	}
}

// Users returns the user repository view of the store
func (s *Store) Users() user.Repository { return &UserRepository{s} }

// Drivers returns the driver repository view of the store
func (s *Store) Drivers() driver.Repository { return &DriverRepository{s} }

// Rides returns the ride repository view of the store
func (s *Store) Rides() ride.Repository { return &RideRepository{s} }

func copyRide(r *ride.Ride) *ride.Ride {
	c := *r
	if r.DriverID != nil {
		id := *r.DriverID
		c.DriverID = &id
	}
	if r.ReturnDate != nil {
		d := *r.ReturnDate
		c.ReturnDate = &d
	}
	if r.PickupCoordinates != nil {
		p := *r.PickupCoordinates
		c.PickupCoordinates = &p
	}
	if r.DropCoordinates != nil {
		p := *r.DropCoordinates
		c.DropCoordinates = &p
	}
	return &c
}

func copyUser(u *user.User) *user.User {
	c := *u
	c.Roles = append([]user.Role(nil), u.Roles...)
	return &c
}
