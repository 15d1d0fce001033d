package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gocomet/ride-booking/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds RabbitMQ configuration
type Config struct {
	URL          string
	Exchange     string
	DialAttempts int
	RetryDelay   time.Duration
}

// Publisher publishes persistent JSON messages to a topic exchange
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
	logger   *logger.Logger
}

// Connect dials RabbitMQ, retrying until the broker is reachable, and declares the exchange
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	attempts := cfg.DialAttempts
	if attempts <= 0 {
		attempts = 10
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < attempts; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		log.Warn("RabbitMQ not ready, retrying",
			logger.Int("attempt", i+1),
			logger.Int("max_attempts", attempts),
			logger.Err(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", cfg.Exchange, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange, logger: log}, nil
}

// PublishJSON marshals v and publishes it with the given routing key
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.ch.Close(); err != nil {
		p.logger.Warn("Failed to close RabbitMQ channel", logger.Err(err))
	}
	return p.conn.Close()
}
