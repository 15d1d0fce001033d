package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/api/dto"
	"github.com/gocomet/ride-booking/internal/api/middleware"
	"github.com/gocomet/ride-booking/internal/service/metrics"
	"github.com/gocomet/ride-booking/internal/service/policy"
	"github.com/gocomet/ride-booking/internal/service/rides"
	"github.com/gocomet/ride-booking/internal/service/users"
	"github.com/gocomet/ride-booking/pkg/cache"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/gocomet/ride-booking/pkg/monitoring"
	"github.com/gocomet/ride-booking/pkg/websocket"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
)

// IdempotencyStore is satisfied by *cache.IdempotencyStore
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*cache.StoredResponse, bool, error)
	Save(ctx context.Context, key string, status int, body []byte) error
	Release(ctx context.Context, key string) error
}

// Handlers holds all handler dependencies
type Handlers struct {
	Rides    *rides.Service
	Users    *users.Service
	Metrics  *metrics.Aggregator
	Hub      *websocket.Hub
	Verifier middleware.TokenVerifier
	Monitor  *monitoring.NewRelicApp
	Logger   *logger.Logger

	// Idempotency is optional; without it Idempotency-Key headers are ignored
	Idempotency IdempotencyStore
	Upgrader    gorilla.Upgrader
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	rideService *rides.Service,
	userService *users.Service,
	aggregator *metrics.Aggregator,
	hub *websocket.Hub,
	verifier middleware.TokenVerifier,
	monitor *monitoring.NewRelicApp,
	log *logger.Logger,
) *Handlers {
	return &Handlers{
		Rides:    rideService,
		Users:    userService,
		Metrics:  aggregator,
		Hub:      hub,
		Verifier: verifier,
		Monitor:  monitor,
		Logger:   log,
		Upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// respondError writes err as {code, message, details}
func respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	c.JSON(appErr.Status, appErr)
}

// fail responds with err and counts authorization denials per operation
func (h *Handlers) fail(c *gin.Context, operation string, err error) {
	if apperrors.GetAppError(err).Status == http.StatusForbidden {
		h.Monitor.RecordAuthorizationDenied(operation)
	}
	respondError(c, err)
}

func actor(c *gin.Context) (policy.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Not authorized", nil))
	}
	return a, ok
}

func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperrors.BadRequest("Invalid "+label+" id", err))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.Validation("Invalid request payload", nil).WithDetails(err.Error()))
		return false
	}
	return true
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:      "healthy",
		Service:     "ride-booking",
		Connections: h.Hub.ActiveConnections(),
	})
}
