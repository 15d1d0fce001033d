package driver

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vehicle describes the car a driver operates
type Vehicle struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Color       string `json:"color"`
	PlateNumber string `json:"plateNumber"`
}

// Driver is the profile attached one-to-one to a user holding the driver role.
// Name and Email are read through from the owning user.
type Driver struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Vehicle     Vehicle   `json:"vehicle"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the flattened driver projection returned alongside rides
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Vehicle     Vehicle   `json:"vehicle"`
	IsAvailable bool      `json:"isAvailable"`
}

// Summary returns the flattened projection
func (d *Driver) Summary() *Summary {
	return &Summary{
		ID:          d.ID,
		Name:        d.Name,
		Phone:       d.Phone,
		Email:       d.Email,
		Vehicle:     d.Vehicle,
		IsAvailable: d.IsAvailable,
	}
}

// ValidateInfo checks a self-service profile update
func ValidateInfo(phone string, v Vehicle) error {
	if strings.TrimSpace(phone) == "" {
		return ErrInvalidDriverPhone
	}
	if strings.TrimSpace(v.Make) == "" || strings.TrimSpace(v.Model) == "" ||
		strings.TrimSpace(v.Color) == "" || strings.TrimSpace(v.PlateNumber) == "" {
		return ErrInvalidVehicle
	}
	return nil
}
