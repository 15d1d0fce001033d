package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gocomet/ride-booking/pkg/logger"
)

// Audience names a class of connected clients
const (
	AudienceDashboard = "dashboard"
	AudienceCustomer  = "customer"
	AudienceDriver    = "driver"
)

// Hub maintains active client connections and fans messages out to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logger.Logger
}

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered",
				logger.String("client_id", client.ID),
				logger.String("user_id", client.UserID),
				logger.String("audience", client.Audience),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Client unregistered", logger.String("client_id", client.ID))
			}
			h.mu.Unlock()
		}
	}
}

// Register registers a new client. After the hub has stopped the client's
// send channel is closed instead, which ends its write pump.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister unregisters a client. It is a no-op once the hub has stopped,
// since Run already closed every registered client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser sends a message to every connection of a user. Returns the number of deliveries.
func (h *Hub) SendToUser(userID string, message Message) int {
	return h.deliver(message, func(c *Client) bool { return c.UserID == userID })
}

// BroadcastToAudience sends a message to all clients of an audience
func (h *Hub) BroadcastToAudience(audience string, message Message) int {
	return h.deliver(message, func(c *Client) bool { return c.Audience == audience })
}

// BroadcastToRide sends a message to every client subscribed to a ride
func (h *Hub) BroadcastToRide(rideID string, message Message) int {
	return h.deliver(message, func(c *Client) bool { return c.IsSubscribedToRide(rideID) })
}

// BroadcastRideEvent sends a message once to every client that follows a ride:
// dashboards, the owner's connections and ride subscribers
func (h *Hub) BroadcastRideEvent(rideID, ownerID string, message Message) int {
	return h.deliver(message, func(c *Client) bool {
		return c.Audience == AudienceDashboard || c.UserID == ownerID || c.IsSubscribedToRide(rideID)
	})
}

// ActiveConnections returns the number of active connections
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(message Message, match func(*Client) bool) int {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", logger.Err(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.Send <- data:
			count++
		default:
			h.logger.Warn("Client send buffer full",
				logger.String("client_id", client.ID),
				logger.String("message_type", message.Type),
			)
		}
	}
	return count
}
