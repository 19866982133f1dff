// Package cache implements the Redis-backed result cache. A cached result
// set is only ever a shortcut: every failure path degrades to a fresh
// search.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vigil/internal/screening/metrics"
	"vigil/internal/screening/models"
)

const keyPrefix = "screening:result:"

// Cache stores completed result sets in Redis with a bounded TTL.
type Cache struct {
	client  redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
}

// New creates a result cache. TTL must be positive; cached sanctions data
// must age out quickly after a list refresh.
func New(client redis.Cmdable, ttl time.Duration, m *metrics.Metrics) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %v", ttl)
	}
	if m == nil {
		return nil, fmt.Errorf("metrics is required")
	}
	return &Cache{client: client, ttl: ttl, metrics: m}, nil
}

// Get returns the cached result set for a fingerprint key, if present.
func (c *Cache) Get(ctx context.Context, key string) (*models.MatchResultSet, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.RecordCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		c.metrics.RecordCacheMiss()
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var set models.MatchResultSet
	if err := json.Unmarshal(raw, &set); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		c.metrics.RecordCacheMiss()
		return nil, false, nil
	}
	c.metrics.RecordCacheHit()
	return &set, true, nil
}

// Set stores a result set under a fingerprint key.
func (c *Cache) Set(ctx context.Context, key string, set *models.MatchResultSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
