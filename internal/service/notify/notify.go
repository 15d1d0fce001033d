// Package notify delivers ride events to websocket clients, RabbitMQ and the
// metrics cache.
package notify

import (
	"context"

	"github.com/gocomet/ride-booking/internal/service/metrics"
	"github.com/gocomet/ride-booking/internal/service/rides"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/gocomet/ride-booking/pkg/websocket"
)

// HubPublisher pushes events to dashboard clients, the ride owner and any
// client subscribed to the ride
type HubPublisher struct {
	hub *websocket.Hub
}

func NewHubPublisher(hub *websocket.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, event rides.Event) error {
	msg := websocket.Message{Type: event.Type, Data: event}
	p.hub.BroadcastRideEvent(event.RideID.String(), event.OwnerID.String(), msg)
	return nil
}

// JSONPublisher is satisfied by *mq.Publisher
type JSONPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

// AMQPPublisher sends every event to the exchange, routed by event type
type AMQPPublisher struct {
	publisher JSONPublisher
}

func NewAMQPPublisher(publisher JSONPublisher) *AMQPPublisher {
	return &AMQPPublisher{publisher: publisher}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event rides.Event) error {
	return p.publisher.PublishJSON(ctx, event.Type, event)
}

// CacheInvalidator drops the cached dashboard whenever a ride changes
type CacheInvalidator struct {
	cache metrics.SnapshotCache
}

func NewCacheInvalidator(cache metrics.SnapshotCache) *CacheInvalidator {
	return &CacheInvalidator{cache: cache}
}

func (p *CacheInvalidator) Publish(ctx context.Context, event rides.Event) error {
	return p.cache.Invalidate(ctx)
}

// Fanout publishes to every publisher in order. Failures are logged and never
// returned, so a broken sink cannot fail the request that produced the event.
type Fanout struct {
	publishers []rides.Publisher
	logger     *logger.Logger
}

func NewFanout(log *logger.Logger, publishers ...rides.Publisher) *Fanout {
	return &Fanout{publishers: publishers, logger: log}
}

// Add appends a publisher; call before serving traffic
func (f *Fanout) Add(p rides.Publisher) {
	f.publishers = append(f.publishers, p)
}

func (f *Fanout) Publish(ctx context.Context, event rides.Event) error {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			f.logger.Warn("Event delivery failed",
				logger.String("type", event.Type),
				logger.String("ride_id", event.RideID.String()),
				logger.Err(err),
			)
		}
	}
	return nil
}
