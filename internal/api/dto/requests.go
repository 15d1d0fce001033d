package dto

import (
	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/service/rides"
)

// CreateRideRequest is the booking form. Field presence is validated by the
// ride service so the client gets one message for every missing field.
type CreateRideRequest struct {
	Name              string            `json:"name"`
	Phone             string            `json:"phone"`
	PickupLocation    string            `json:"pickupLocation"`
	DropLocation      string            `json:"dropLocation"`
	PickupCoordinates *ride.Coordinates `json:"pickupCoordinates"`
	DropCoordinates   *ride.Coordinates `json:"dropCoordinates"`
	Date              string            `json:"date"`
	Time              string            `json:"time"`
	IsPrivate         bool              `json:"isPrivate"`
	Notes             string            `json:"notes"`
	ReturnRide        bool              `json:"returnRide"`
	ReturnDate        string            `json:"returnDate"`
	ReturnTime        string            `json:"returnTime"`
}

// Input converts the request into the service input
func (r CreateRideRequest) Input() rides.CreateInput {
	return rides.CreateInput{
		Name:              r.Name,
		Phone:             r.Phone,
		PickupLocation:    r.PickupLocation,
		DropLocation:      r.DropLocation,
		PickupCoordinates: r.PickupCoordinates,
		DropCoordinates:   r.DropCoordinates,
		Date:              r.Date,
		Time:              r.Time,
		IsPrivate:         r.IsPrivate,
		Notes:             r.Notes,
		ReturnRide:        r.ReturnRide,
		ReturnDate:        r.ReturnDate,
		ReturnTime:        r.ReturnTime,
	}
}

// AssignDriverRequest binds a driver to a ride
type AssignDriverRequest struct {
	DriverID string `json:"driverId" binding:"required,uuid"`
}

// UpdateStatusRequest moves a ride to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SyncUserRequest optionally overrides the name and email carried by the token
type SyncUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

// SetRolesRequest replaces a user's roles
type SetRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

// DriverInfoRequest updates the caller's driver profile
type DriverInfoRequest struct {
	Phone   string         `json:"phone"`
	Vehicle driver.Vehicle `json:"vehicle"`
}

// AvailabilityRequest toggles driver availability
type AvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}
