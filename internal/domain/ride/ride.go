package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents ride status
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority orders statuses for listings: pending first, cancelled last, unknown values after that.
func (s Status) Priority() int {
	switch s {
	case StatusPending:
		return 1
	case StatusConfirmed:
		return 2
	case StatusCompleted:
		return 3
	case StatusCancelled:
		return 4
	}
	return 99
}

// Coordinates is an optional geocoded point attached to a location
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Ride is one directional leg of a booking
type Ride struct {
	ID                uuid.UUID    `json:"id"`
	OwnerID           uuid.UUID    `json:"userId"`
	Name              string       `json:"name"`
	Phone             string       `json:"phone"`
	PickupLocation    string       `json:"pickupLocation"`
	DropLocation      string       `json:"dropLocation"`
	PickupCoordinates *Coordinates `json:"pickupCoordinates,omitempty"`
	DropCoordinates   *Coordinates `json:"dropCoordinates,omitempty"`
	// Date is a calendar marker: midnight UTC of the requested local date
	Date       time.Time  `json:"date"`
	Time       string     `json:"time"`
	IsPrivate  bool       `json:"isPrivate"`
	Notes      string     `json:"notes,omitempty"`
	Status     Status     `json:"status"`
	ReturnRide bool       `json:"returnRide"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	ReturnTime string     `json:"returnTime,omitempty"`
	DriverID   *uuid.UUID `json:"driverId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// IsOwnedBy reports whether userID requested the ride
func (r *Ride) IsOwnedBy(userID uuid.UUID) bool {
	return r.OwnerID == userID
}

// HasDriver reports whether a driver is assigned
func (r *Ride) HasDriver() bool {
	return r.DriverID != nil
}

// ReturnLeg builds the mirrored leg of a round trip: same owner, notes and privacy,
// pickup and drop swapped, scheduled at the return date and time.
func (r *Ride) ReturnLeg(date time.Time, clock string) *Ride {
	return &Ride{
		OwnerID:           r.OwnerID,
		Name:              r.Name,
		Phone:             r.Phone,
		PickupLocation:    r.DropLocation,
		DropLocation:      r.PickupLocation,
		PickupCoordinates: r.DropCoordinates,
		DropCoordinates:   r.PickupCoordinates,
		Date:              date,
		Time:              clock,
		IsPrivate:         r.IsPrivate,
		Notes:             r.Notes,
		Status:            StatusPending,
		ReturnRide:        true,
	}
}

// ListFilter narrows ride listings. Nil fields are unrestricted.
type ListFilter struct {
	OwnerID  *uuid.UUID
	DriverID *uuid.UUID
	Status   *Status
}

// CountFilter narrows ride counts. Nil fields are unrestricted.
type CountFilter struct {
	Status       *Status
	CreatedSince *time.Time
}

// Repository defines ride persistence
type Repository interface {
	// CreateLegs inserts every leg in a single transaction
	CreateLegs(ctx context.Context, legs ...*Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)
	// SetDriver sets (or clears, when driverID is nil) the driver and overwrites the status
	SetDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID, status Status) (*Ride, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Ride, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*Ride, error)
	Count(ctx context.Context, filter CountFilter) (int64, error)
}

// Errors
var (
	ErrRideNotFound = errors.New("ride not found")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTime  = errors.New("invalid time, expected HH:MM")
)
