package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/api/dto"
	"github.com/gocomet/ride-booking/internal/api/middleware"
	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/service/users"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
)

// SyncUser handles POST /api/users. The account is keyed by the token subject;
// the body may override the name and email the token carries.
func (h *Handlers) SyncUser(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Not authorized", nil))
		return
	}

	var req dto.SyncUserRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	in := users.SyncInput{Subject: identity.Subject, Name: identity.Name, Email: identity.Email}
	if req.Name != "" {
		in.Name = req.Name
	}
	if req.Email != "" {
		in.Email = req.Email
	}

	u, created, err := h.Users.Sync(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, u)
}

// Profile handles GET /api/users/profile
func (h *Handlers) Profile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.Users.Profile(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// SetRoles handles PUT /api/users/:uid/roles
func (h *Handlers) SetRoles(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.SetRolesRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.Users.SetRoles(c.Request.Context(), a, c.Param("uid"), req.Roles)
	if err != nil {
		h.fail(c, "set_roles", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ListDrivers handles GET /api/users/drivers
func (h *Handlers) ListDrivers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.Users.ListDrivers(c.Request.Context(), a)
	if err != nil {
		h.fail(c, "list_drivers", err)
		return
	}
	if list == nil {
		list = []*driver.Driver{}
	}
	c.JSON(http.StatusOK, list)
}

// DriverInfo handles GET /api/users/driver-info
func (h *Handlers) DriverInfo(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.Users.DriverInfo(c.Request.Context(), a)
	if err != nil {
		h.fail(c, "driver_info", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// UpdateDriverInfo handles PUT /api/users/driver-info
func (h *Handlers) UpdateDriverInfo(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req dto.DriverInfoRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.Users.UpdateDriverInfo(c.Request.Context(), a, req.Phone, req.Vehicle)
	if err != nil {
		h.fail(c, "update_driver_info", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// SetDriverAvailability handles PUT /api/users/drivers/:driverId/availability
func (h *Handlers) SetDriverAvailability(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	driverID, ok := pathID(c, "driverId", "driver")
	if !ok {
		return
	}

	var req dto.AvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.Users.SetDriverAvailability(c.Request.Context(), a, driverID, *req.IsAvailable)
	if err != nil {
		h.fail(c, "driver_availability", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDriver handles DELETE /api/users/drivers/:driverId
func (h *Handlers) DeleteDriver(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	driverID, ok := pathID(c, "driverId", "driver")
	if !ok {
		return
	}

	u, err := h.Users.DeleteDriver(c.Request.Context(), a, driverID)
	if err != nil {
		h.fail(c, "delete_driver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Driver deleted successfully",
		"user":    u,
	})
}
