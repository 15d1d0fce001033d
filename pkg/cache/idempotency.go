package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "idempotency:"
	pendingMarker     = "pending"
)

// ErrRequestInProgress is returned when another request holds the same key
var ErrRequestInProgress = errors.New("request with this idempotency key is in progress")

// StoredResponse is a replayable response body
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyStore remembers responses by client-supplied key
type IdempotencyStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewIdempotencyStore creates a store whose saved responses expire after ttl.
// A claimed key that is never saved or released unlocks after lockTTL.
func NewIdempotencyStore(client *redis.Client, ttl, lockTTL time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &IdempotencyStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

// Begin claims key. When the key already completed, the stored response is
// returned and claimed is false.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (stored *StoredResponse, claimed bool, err error) {
	ok, err := SetNX(ctx, s.client, idempotencyPrefix+key, pendingMarker, s.lockTTL)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	val, found, err := Get(ctx, s.client, idempotencyPrefix+key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		// expired between the two calls
		return s.Begin(ctx, key)
	}
	if val == pendingMarker {
		return nil, false, ErrRequestInProgress
	}

	var resp StoredResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, false, nil
}

// Save records the response for a claimed key
func (s *IdempotencyStore) Save(ctx context.Context, key string, status int, body []byte) error {
	data, err := json.Marshal(StoredResponse{Status: status, Body: body})
	if err != nil {
		return err
	}
	return SetWithExpiry(ctx, s.client, idempotencyPrefix+key, data, s.ttl)
}

// Release frees a claimed key so the request can be retried
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return Delete(ctx, s.client, idempotencyPrefix+key)
}
