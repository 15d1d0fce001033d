package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/auth"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/service/policy"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/gocomet/ride-booking/pkg/websocket"
	"github.com/google/uuid"
)

const subscribeCheckTimeout = 5 * time.Second

// HandleWebSocket handles GET /api/ws?token=...
// Browsers cannot set headers on the upgrade request, so the token travels in the query.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}

	identity, err := h.Verifier.Verify(token)
	if err != nil {
		respondError(c, apperrors.Unauthorized("Not authorized, token failed", err))
		return
	}

	u, err := h.Users.Lookup(c.Request.Context(), identity.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	a := policy.NewActor(u)

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, u.ID.String(), audienceFor(a), h.Logger)
	client.CanSubscribe = func(rideID string) bool {
		id, err := uuid.Parse(rideID)
		if err != nil {
			return false
		}
		ctx, cancel := context.WithTimeout(context.Background(), subscribeCheckTimeout)
		defer cancel()
		return h.Rides.CanWatch(ctx, a, id)
	}
	h.Hub.Register(client)

	h.Logger.Info("WebSocket client connected",
		logger.String("user_id", client.UserID),
		logger.String("audience", client.Audience),
	)

	go client.WritePump()
	go client.ReadPump()
}

func audienceFor(a policy.Actor) string {
	switch {
	case a.Can(policy.ViewAllRides):
		return websocket.AudienceDashboard
	case a.HasRole(user.RoleDriver):
		return websocket.AudienceDriver
	default:
		return websocket.AudienceCustomer
	}
}
