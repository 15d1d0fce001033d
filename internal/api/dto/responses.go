package dto

import (
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/google/uuid"
)

// CreateRideResponse is returned by POST /api/rides
type CreateRideResponse struct {
	Message    string     `json:"message"`
	Ride       *ride.Ride `json:"ride"`
	ReturnRide *ride.Ride `json:"returnRide"`
}

// DeleteRideResponse is returned by DELETE /api/rides/:rideId
type DeleteRideResponse struct {
	Message       string    `json:"message"`
	DeletedRideID uuid.UUID `json:"deletedRideId"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Connections int    `json:"connections"`
}
