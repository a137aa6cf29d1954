package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PredictionCache fronts the prediction service with Redis. Predictions are
// deterministic given a bundle and the ingested history, so a short TTL only
// bounds staleness after new weekly stats arrive.
type PredictionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPredictionCache(client *redis.Client, ttl time.Duration) *PredictionCache {
	return &PredictionCache{client: client, ttl: ttl}
}

// Get returns the cached payload, or "" on a miss. Cache failures are
// treated as misses; the caller recomputes.
func (c *PredictionCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *PredictionCache) Set(ctx context.Context, key, val string) error {
	return c.client.Set(ctx, key, val, c.ttl).Err()
}
