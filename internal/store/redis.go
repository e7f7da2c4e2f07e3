package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/motoconnect/internal/analytics"
)

const defaultDenialKey = "ratelimit:denials"

// RedisStore keeps denial events in a capped Redis list, newest at the head.
type RedisStore struct {
	client   *redis.Client
	key      string
	capacity int64
}

// NewRedisStore creates a Redis-backed denial log holding up to capacity events.
func NewRedisStore(client *redis.Client, capacity int64) *RedisStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	return &RedisStore{
		client:   client,
		key:      defaultDenialKey,
		capacity: capacity,
	}
}

func (r *RedisStore) SaveRateLimitExceeded(ctx context.Context, event *analytics.RateLimitExceededEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal denial: %w", err)
	}

	// push and trim in one round trip
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, payload)
	pipe.LTrim(ctx, r.key, 0, r.capacity-1)
	_, err = pipe.Exec(ctx)

	return err
}

func (r *RedisStore) Recent(ctx context.Context, limit int) ([]analytics.RateLimitExceededEvent, error) {
	if limit <= 0 {
		limit = analytics.DefaultRecentLimit
	}

	raw, err := r.client.LRange(ctx, r.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]analytics.RateLimitExceededEvent, 0, len(raw))

	for _, item := range raw {
		var e analytics.RateLimitExceededEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode denial: %w", err)
		}

		events = append(events, e)
	}

	return events, nil
}

var _ analytics.DenialLog = (*RedisStore)(nil)
