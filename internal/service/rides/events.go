package rides

import (
	"context"
	"time"

	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/google/uuid"
)

// Event types, also used as AMQP routing keys
const (
	EventRideCreated        = "ride.created"
	EventRideDriverAssigned = "ride.driver_assigned"
	EventRideDriverRemoved  = "ride.driver_removed"
	EventRideStatusUpdated  = "ride.status_updated"
	EventRideDeleted        = "ride.deleted"
)

// Event describes a ride mutation after it has been persisted
type Event struct {
	Type       string      `json:"type"`
	RideID     uuid.UUID   `json:"rideId"`
	OwnerID    uuid.UUID   `json:"ownerId"`
	DriverID   *uuid.UUID  `json:"driverId,omitempty"`
	Status     ride.Status `json:"status"`
	ReturnRide bool        `json:"returnRide"`
	ActorID    uuid.UUID   `json:"actorId"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Publisher delivers ride events to interested parties
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

func newEvent(eventType string, r *ride.Ride, actorID uuid.UUID, at time.Time) Event {
	return Event{
		Type:       eventType,
		RideID:     r.ID,
		OwnerID:    r.OwnerID,
		DriverID:   r.DriverID,
		Status:     r.Status,
		ReturnRide: r.ReturnRide,
		ActorID:    actorID,
		OccurredAt: at,
	}
}
