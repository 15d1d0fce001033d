package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application. A nil or disabled app is a no-op.
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr != nil && nr.enabled && nr.Application != nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.Shutdown(timeout)
}

// RecordRideCreated records a booking, counting the return leg when present
func (nr *NewRelicApp) RecordRideCreated(rideID string, roundTrip bool) {
	nr.RecordCustomEvent("RideCreated", map[string]interface{}{
		"ride_id":    rideID,
		"round_trip": roundTrip,
		"timestamp":  time.Now().Unix(),
	})
}

// RecordRideStatusChanged records a ride lifecycle transition
func (nr *NewRelicApp) RecordRideStatusChanged(rideID, status string) {
	nr.RecordCustomEvent("RideStatusChanged", map[string]interface{}{
		"ride_id": rideID,
		"status":  status,
	})
}

// RecordAuthorizationDenied counts forbidden operations by name
func (nr *NewRelicApp) RecordAuthorizationDenied(operation string) {
	nr.RecordCustomMetric(fmt.Sprintf("custom/auth/denied/%s", operation), 1)
}

// RecordDatabasePoolStats records database connection pool statistics
func (nr *NewRelicApp) RecordDatabasePoolStats(stats map[string]interface{}) {
	if totalConns, ok := stats["total_connections"].(int32); ok {
		nr.RecordCustomMetric("custom/db/total_connections", float64(totalConns))
	}
	if idleConns, ok := stats["idle_connections"].(int32); ok {
		nr.RecordCustomMetric("custom/db/idle_connections", float64(idleConns))
	}
	if acquiredConns, ok := stats["acquired_connections"].(int32); ok {
		nr.RecordCustomMetric("custom/db/acquired_connections", float64(acquiredConns))
	}
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats map[string]interface{}) {
	if hits, ok := stats["hits"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_hits", float64(hits))
	}
	if misses, ok := stats["misses"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_misses", float64(misses))
	}
	if timeouts, ok := stats["timeouts"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/timeouts", float64(timeouts))
	}
}
