package rides

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/service/policy"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/google/uuid"
)

// Service implements the ride lifecycle: booking, driver assignment, status
// transitions, deletion and the role-scoped listings.
type Service struct {
	rides     ride.Repository
	drivers   driver.Repository
	users     user.Repository
	publisher Publisher
	logger    *logger.Logger
	config    Config
	now       func() time.Time
}

// Config holds ride service configuration
type Config struct {
	// Location is the zone booking dates are interpreted in
	Location *time.Location
}

// View is a ride with its driver and owner projections attached
type View struct {
	*ride.Ride
	Driver *driver.Summary `json:"driver"`
	User   *user.Summary   `json:"user,omitempty"`
}

// CreateInput carries the booking form
type CreateInput struct {
	Name              string
	Phone             string
	PickupLocation    string
	DropLocation      string
	PickupCoordinates *ride.Coordinates
	DropCoordinates   *ride.Coordinates
	Date              string
	Time              string
	IsPrivate         bool
	Notes             string
	ReturnRide        bool
	ReturnDate        string
	ReturnTime        string
}

// CreateResult holds both legs of a booking. ReturnRide is nil for one-way bookings.
type CreateResult struct {
	Ride       *ride.Ride `json:"ride"`
	ReturnRide *ride.Ride `json:"returnRide"`
}

// NewService creates a new ride service. publisher may be nil.
func NewService(rides ride.Repository, drivers driver.Repository, users user.Repository, publisher Publisher, log *logger.Logger, config Config) *Service {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Service{
		rides:     rides,
		drivers:   drivers,
		users:     users,
		publisher: publisher,
		logger:    log,
		config:    config,
		now:       time.Now,
	}
}

// Create books a ride and, when a return trip is requested with both date and
// time, its mirrored return leg. Both legs are written in one transaction.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (*CreateResult, error) {
	if err := policy.Require(actor, policy.BookRides); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" ||
		strings.TrimSpace(in.PickupLocation) == "" || strings.TrimSpace(in.DropLocation) == "" {
		return nil, apperrors.Validation("Name, phone, pickup and drop locations are required", nil)
	}

	date, err := ride.ParseDate(in.Date, s.config.Location)
	if err != nil {
		return nil, apperrors.Validation("Invalid ride date", err)
	}
	if _, err := ride.ParseClock(in.Time); err != nil {
		return nil, apperrors.Validation("Invalid ride time", err)
	}

	now := s.now()
	outbound := &ride.Ride{
		ID:                uuid.New(),
		OwnerID:           actor.UserID,
		Name:              in.Name,
		Phone:             in.Phone,
		PickupLocation:    in.PickupLocation,
		DropLocation:      in.DropLocation,
		PickupCoordinates: in.PickupCoordinates,
		DropCoordinates:   in.DropCoordinates,
		Date:              date,
		Time:              in.Time,
		IsPrivate:         in.IsPrivate,
		Notes:             in.Notes,
		Status:            ride.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	legs := []*ride.Ride{outbound}

	var returnLeg *ride.Ride
	if in.ReturnRide && in.ReturnDate != "" && in.ReturnTime != "" {
		returnDate, err := ride.ParseDate(in.ReturnDate, s.config.Location)
		if err != nil {
			return nil, apperrors.Validation("Invalid return date", err)
		}
		if _, err := ride.ParseClock(in.ReturnTime); err != nil {
			return nil, apperrors.Validation("Invalid return time", err)
		}

		outbound.ReturnDate = &returnDate
		outbound.ReturnTime = in.ReturnTime

		returnLeg = outbound.ReturnLeg(returnDate, in.ReturnTime)
		returnLeg.ID = uuid.New()
		returnLeg.CreatedAt = now
		returnLeg.UpdatedAt = now
		legs = append(legs, returnLeg)
	}

	if err := s.rides.CreateLegs(ctx, legs...); err != nil {
		s.logger.Error("Failed to create ride", logger.Err(err), logger.String("user_id", actor.UserID.String()))
		return nil, apperrors.Internal("Failed to book ride", err)
	}

	s.logger.Info("Ride booked",
		logger.String("ride_id", outbound.ID.String()),
		logger.String("user_id", actor.UserID.String()),
		logger.Bool("round_trip", returnLeg != nil),
	)

	for _, leg := range legs {
		s.publish(ctx, newEvent(EventRideCreated, leg, actor.UserID, now))
	}

	return &CreateResult{Ride: outbound, ReturnRide: returnLeg}, nil
}

// AssignDriver binds a driver to the ride and forces it to confirmed, replacing any
// previously assigned driver.
func (s *Service) AssignDriver(ctx context.Context, actor policy.Actor, rideID, driverID uuid.UUID) (*View, error) {
	if err := policy.AuthorizeDriverAssignment(actor); err != nil {
		s.denied("assign_driver", actor, rideID)
		return nil, err
	}

	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, s.translate(err, "Failed to assign driver")
	}

	updated, err := s.rides.SetDriver(ctx, rideID, &d.ID, ride.StatusConfirmed)
	if err != nil {
		return nil, s.translate(err, "Failed to assign driver")
	}

	s.logger.Info("Driver assigned",
		logger.String("ride_id", rideID.String()),
		logger.String("driver_id", d.ID.String()),
		logger.String("user_id", actor.UserID.String()),
	)
	s.publish(ctx, newEvent(EventRideDriverAssigned, updated, actor.UserID, s.now()))

	return &View{Ride: updated, Driver: d.Summary()}, nil
}

// RemoveDriver clears the ride's driver and forces it back to pending.
func (s *Service) RemoveDriver(ctx context.Context, actor policy.Actor, rideID uuid.UUID) (*View, error) {
	if err := policy.AuthorizeDriverAssignment(actor); err != nil {
		s.denied("remove_driver", actor, rideID)
		return nil, err
	}

	updated, err := s.rides.SetDriver(ctx, rideID, nil, ride.StatusPending)
	if err != nil {
		return nil, s.translate(err, "Failed to remove driver")
	}

	s.logger.Info("Driver removed",
		logger.String("ride_id", rideID.String()),
		logger.String("user_id", actor.UserID.String()),
	)
	s.publish(ctx, newEvent(EventRideDriverRemoved, updated, actor.UserID, s.now()))

	return &View{Ride: updated}, nil
}

// UpdateStatus applies a status transition after the policy check.
func (s *Service) UpdateStatus(ctx context.Context, actor policy.Actor, rideID uuid.UUID, status ride.Status) (*View, error) {
	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, s.translate(err, "Failed to update status")
	}

	var assigned *driver.Driver
	if current.DriverID != nil {
		assigned, err = s.drivers.GetByID(ctx, *current.DriverID)
		if err != nil && !errors.Is(err, driver.ErrDriverNotFound) {
			return nil, s.translate(err, "Failed to update status")
		}
	}

	var driverUserID *uuid.UUID
	if assigned != nil {
		driverUserID = &assigned.UserID
	}
	if err := policy.AuthorizeStatusUpdate(actor, current, driverUserID, status); err != nil {
		s.denied("update_status", actor, rideID)
		return nil, err
	}
	// only privileged actors get here with anything but completed
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidStatus
	}

	updated, err := s.rides.UpdateStatus(ctx, rideID, status)
	if err != nil {
		return nil, s.translate(err, "Failed to update status")
	}

	s.logger.Info("Ride status updated",
		logger.String("ride_id", rideID.String()),
		logger.String("user_id", actor.UserID.String()),
		logger.String("from", string(current.Status)),
		logger.String("to", string(status)),
	)
	s.publish(ctx, newEvent(EventRideStatusUpdated, updated, actor.UserID, s.now()))

	view := &View{Ride: updated}
	if assigned != nil {
		view.Driver = assigned.Summary()
	}
	return view, nil
}

// Delete removes a ride permanently and returns its id.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, rideID uuid.UUID) (uuid.UUID, error) {
	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return uuid.Nil, s.translate(err, "Failed to delete ride")
	}

	if err := policy.AuthorizeDelete(actor, current); err != nil {
		s.denied("delete_ride", actor, rideID)
		return uuid.Nil, err
	}

	if err := s.rides.Delete(ctx, rideID); err != nil {
		return uuid.Nil, s.translate(err, "Failed to delete ride")
	}

	s.logger.Info("Ride deleted",
		logger.String("ride_id", rideID.String()),
		logger.String("user_id", actor.UserID.String()),
	)
	s.publish(ctx, newEvent(EventRideDeleted, current, actor.UserID, s.now()))

	return rideID, nil
}

// CanWatch reports whether the actor may subscribe to live updates of the ride
func (s *Service) CanWatch(ctx context.Context, actor policy.Actor, rideID uuid.UUID) bool {
	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return false
	}

	var driverUserID *uuid.UUID
	if r.DriverID != nil {
		if d, err := s.drivers.GetByID(ctx, *r.DriverID); err == nil {
			driverUserID = &d.UserID
		}
	}
	return policy.CanWatchRide(actor, r, driverUserID)
}

// ListMine returns the actor's rides, most recent date first.
func (s *Service) ListMine(ctx context.Context, actor policy.Actor) ([]View, error) {
	owner := actor.UserID
	list, err := s.rides.List(ctx, ride.ListFilter{OwnerID: &owner})
	if err != nil {
		return nil, s.translate(err, "Failed to fetch rides")
	}
	ride.SortByDateDesc(list)
	return s.views(ctx, list, false)
}

// ListAll returns every ride ordered by status priority, date and time.
func (s *Service) ListAll(ctx context.Context, actor policy.Actor) ([]View, error) {
	if err := policy.Require(actor, policy.ViewAllRides); err != nil {
		return nil, err
	}
	list, err := s.rides.List(ctx, ride.ListFilter{})
	if err != nil {
		return nil, s.translate(err, "Failed to fetch rides")
	}
	ride.SortByPriority(list)
	return s.views(ctx, list, true)
}

// ListDriverRides returns the rides assigned to the calling driver.
func (s *Service) ListDriverRides(ctx context.Context, actor policy.Actor) ([]View, error) {
	if err := policy.Require(actor, policy.DriveRides); err != nil {
		return nil, err
	}
	profile, err := s.drivers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, s.translate(err, "Failed to fetch driver rides")
	}

	list, err := s.rides.List(ctx, ride.ListFilter{DriverID: &profile.ID})
	if err != nil {
		return nil, s.translate(err, "Failed to fetch driver rides")
	}
	ride.SortByPriority(list)
	return s.views(ctx, list, false)
}

// ListCompleted returns completed rides scoped to the actor's role.
func (s *Service) ListCompleted(ctx context.Context, actor policy.Actor) ([]View, error) {
	completed := ride.StatusCompleted
	filter := ride.ListFilter{Status: &completed}

	switch policy.CompletedScope(actor) {
	case policy.ScopeOwned:
		owner := actor.UserID
		filter.OwnerID = &owner
	case policy.ScopeDriven:
		profile, err := s.drivers.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, s.translate(err, "Failed to fetch completed rides")
		}
		filter.DriverID = &profile.ID
	}

	list, err := s.rides.List(ctx, filter)
	if err != nil {
		return nil, s.translate(err, "Failed to fetch completed rides")
	}
	ride.SortByScheduleDesc(list)
	return s.views(ctx, list, true)
}

// views attaches driver (and optionally owner) projections. Drivers or owners that
// no longer exist are left nil.
func (s *Service) views(ctx context.Context, list []*ride.Ride, withOwner bool) ([]View, error) {
	drivers := make(map[uuid.UUID]*driver.Summary)
	owners := make(map[uuid.UUID]*user.Summary)

	out := make([]View, 0, len(list))
	for _, r := range list {
		v := View{Ride: r}

		if r.DriverID != nil {
			summary, ok := drivers[*r.DriverID]
			if !ok {
				d, err := s.drivers.GetByID(ctx, *r.DriverID)
				if err != nil && !errors.Is(err, driver.ErrDriverNotFound) {
					return nil, s.translate(err, "Failed to load driver details")
				}
				if d != nil {
					summary = d.Summary()
				}
				drivers[*r.DriverID] = summary
			}
			v.Driver = summary
		}

		if withOwner {
			summary, ok := owners[r.OwnerID]
			if !ok {
				u, err := s.users.GetByID(ctx, r.OwnerID)
				if err != nil && !errors.Is(err, user.ErrUserNotFound) {
					return nil, s.translate(err, "Failed to load owner details")
				}
				if u != nil {
					summary = u.Summary()
				}
				owners[r.OwnerID] = summary
			}
			v.User = summary
		}

		out = append(out, v)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish ride event",
			logger.String("type", event.Type),
			logger.String("ride_id", event.RideID.String()),
			logger.Err(err),
		)
	}
}

func (s *Service) denied(operation string, actor policy.Actor, rideID uuid.UUID) {
	s.logger.Warn("Ride operation denied",
		logger.String("operation", operation),
		logger.String("ride_id", rideID.String()),
		logger.String("user_id", actor.UserID.String()),
	)
}

// translate maps repository sentinels to application errors
func (s *Service) translate(err error, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, ride.ErrRideNotFound):
		return apperrors.ErrRideNotFound
	case errors.Is(err, driver.ErrDriverNotFound):
		return apperrors.ErrDriverNotFound
	case errors.Is(err, user.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	}
	s.logger.Error(message, logger.Err(err))
	return apperrors.Internal(message, err)
}
