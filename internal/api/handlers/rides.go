package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/api/dto"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/service/policy"
	"github.com/gocomet/ride-booking/internal/service/rides"
	"github.com/gocomet/ride-booking/pkg/cache"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/google/uuid"
)

const (
	idempotencyHeader = "Idempotency-Key"
	// bounds Save and Release once the request context is gone
	idempotencyWriteTimeout = 5 * time.Second
)

// CreateRide handles POST /api/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateRideRequest
	if !bindJSON(c, &req) {
		return
	}

	key := c.GetHeader(idempotencyHeader)
	if key == "" || h.Idempotency == nil {
		status, body, err := h.createRide(c, a, req)
		if err != nil {
			h.fail(c, "create_ride", err)
			return
		}
		c.JSON(status, body)
		return
	}

	// keys are per user so two customers cannot collide
	scoped := a.UserID.String() + ":" + key
	ctx := c.Request.Context()

	stored, claimed, err := h.Idempotency.Begin(ctx, scoped)
	switch {
	case errors.Is(err, cache.ErrRequestInProgress):
		respondError(c, apperrors.Conflict("A request with this Idempotency-Key is already in progress", nil))
		return
	case err != nil:
		h.Logger.Warn("Idempotency store unavailable, booking without it", logger.Err(err))
	case stored != nil:
		c.Header("Idempotent-Replayed", "true")
		c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
		return
	}

	// the outcome is recorded even if the client hangs up, so its retry
	// sees the stored response or a free key
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idempotencyWriteTimeout)
	defer cancel()

	status, body, err := h.createRide(c, a, req)
	if err != nil {
		if claimed {
			if relErr := h.Idempotency.Release(writeCtx, scoped); relErr != nil {
				h.Logger.Warn("Failed to release idempotency key", logger.Err(relErr))
			}
		}
		h.fail(c, "create_ride", err)
		return
	}

	data, err := json.Marshal(body)
	if err != nil {
		if claimed {
			if relErr := h.Idempotency.Release(writeCtx, scoped); relErr != nil {
				h.Logger.Warn("Failed to release idempotency key", logger.Err(relErr))
			}
		}
		respondError(c, apperrors.Internal("Failed to encode response", err))
		return
	}
	if claimed {
		if err := h.Idempotency.Save(writeCtx, scoped, status, data); err != nil {
			h.Logger.Warn("Failed to store idempotent response", logger.Err(err))
		}
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func (h *Handlers) createRide(c *gin.Context, a policy.Actor, req dto.CreateRideRequest) (int, *dto.CreateRideResponse, error) {
	result, err := h.Rides.Create(c.Request.Context(), a, req.Input())
	if err != nil {
		return 0, nil, err
	}

	h.Monitor.RecordRideCreated(result.Ride.ID.String(), result.ReturnRide != nil)

	return http.StatusCreated, &dto.CreateRideResponse{
		Message:    "Ride booked successfully",
		Ride:       result.Ride,
		ReturnRide: result.ReturnRide,
	}, nil
}

// MyRides handles GET /api/rides/my-rides
func (h *Handlers) MyRides(c *gin.Context) {
	h.listRides(c, "my_rides", h.Rides.ListMine)
}

// AllRides handles GET /api/rides/all
func (h *Handlers) AllRides(c *gin.Context) {
	h.listRides(c, "all_rides", h.Rides.ListAll)
}

// DriverRides handles GET /api/rides/driver-rides
func (h *Handlers) DriverRides(c *gin.Context) {
	h.listRides(c, "driver_rides", h.Rides.ListDriverRides)
}

// CompletedRides handles GET /api/rides/completed
func (h *Handlers) CompletedRides(c *gin.Context) {
	h.listRides(c, "completed_rides", h.Rides.ListCompleted)
}

func (h *Handlers) listRides(c *gin.Context, operation string, list func(ctx context.Context, a policy.Actor) ([]rides.View, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	views, err := list(c.Request.Context(), a)
	if err != nil {
		h.fail(c, operation, err)
		return
	}
	if views == nil {
		views = []rides.View{}
	}
	c.JSON(http.StatusOK, views)
}

// AssignDriver handles PUT /api/rides/:rideId/assign-driver
func (h *Handlers) AssignDriver(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "rideId", "ride")
	if !ok {
		return
	}

	var req dto.AssignDriverRequest
	if !bindJSON(c, &req) {
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		respondError(c, apperrors.Validation("Invalid driver id", err))
		return
	}

	view, err := h.Rides.AssignDriver(c.Request.Context(), a, rideID, driverID)
	if err != nil {
		h.fail(c, "assign_driver", err)
		return
	}
	h.Monitor.RecordRideStatusChanged(rideID.String(), string(view.Status))
	c.JSON(http.StatusOK, view)
}

// RemoveDriver handles PUT /api/rides/:rideId/remove-driver
func (h *Handlers) RemoveDriver(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "rideId", "ride")
	if !ok {
		return
	}

	view, err := h.Rides.RemoveDriver(c.Request.Context(), a, rideID)
	if err != nil {
		h.fail(c, "remove_driver", err)
		return
	}
	h.Monitor.RecordRideStatusChanged(rideID.String(), string(view.Status))
	c.JSON(http.StatusOK, view)
}

// UpdateRideStatus handles PUT /api/rides/:rideId/status
func (h *Handlers) UpdateRideStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "rideId", "ride")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.Rides.UpdateStatus(c.Request.Context(), a, rideID, ride.Status(req.Status))
	if err != nil {
		h.fail(c, "update_status", err)
		return
	}
	h.Monitor.RecordRideStatusChanged(rideID.String(), string(view.Status))
	c.JSON(http.StatusOK, view)
}

// DeleteRide handles DELETE /api/rides/:rideId
func (h *Handlers) DeleteRide(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rideID, ok := pathID(c, "rideId", "ride")
	if !ok {
		return
	}

	deleted, err := h.Rides.Delete(c.Request.Context(), a, rideID)
	if err != nil {
		h.fail(c, "delete_ride", err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteRideResponse{
		Message:       "Ride deleted successfully",
		DeletedRideID: deleted,
	})
}

// DashboardMetrics handles GET /api/rides/metrics
func (h *Handlers) DashboardMetrics(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := policy.Require(a, policy.ViewMetrics); err != nil {
		h.fail(c, "metrics", err)
		return
	}

	dashboard, err := h.Metrics.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
