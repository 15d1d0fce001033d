package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocomet/ride-booking/pkg/cache"
	"github.com/redis/go-redis/v9"
)

const snapshotKey = "metrics:dashboard"

// RedisCache keeps the dashboard snapshot in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a snapshot cache; ttl <= 0 falls back to 30s
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) (*Dashboard, bool, error) {
	raw, ok, err := cache.Get(ctx, c.client, snapshotKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var d Dashboard
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

func (c *RedisCache) Set(ctx context.Context, d *Dashboard) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return cache.SetWithExpiry(ctx, c.client, snapshotKey, payload, c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return cache.Delete(ctx, c.client, snapshotKey)
}
