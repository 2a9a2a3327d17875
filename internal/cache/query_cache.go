// Package cache memoizes dashboard query results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"dtindex/internal/infrastructure"
)

// QueryCache stores JSON-encoded query results under keys that include the
// dataset fingerprint, so neither a reload, a restart on a changed file nor
// a replica with other data reads results computed from different data.
// A nil Redis client turns every lookup into a miss without touching Redis.
type QueryCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	metrics   *infrastructure.BusinessMetrics
}

// NewQueryCache wraps a Redis client. If ttl is 0, it defaults to 10 minutes.
// If namespace is empty, it uses "dtindex".
func NewQueryCache(rdb *redis.Client, ttl time.Duration, namespace string, metrics *infrastructure.BusinessMetrics) *QueryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if namespace == "" {
		namespace = "dtindex"
	}
	return &QueryCache{rdb: rdb, ttl: ttl, namespace: namespace, metrics: metrics}
}

// Enabled reports whether a Redis client is configured
func (c *QueryCache) Enabled() bool { return c != nil && c.rdb != nil }

// Key identifies one cached query
type Key struct {
	View    string
	Dataset string
	Params  string
}

func (c *QueryCache) key(k Key) string {
	return fmt.Sprintf("%s:%s:%s:%s", c.namespace, safe(k.View), safe(k.Dataset), safe(k.Params))
}

// Fetch returns the cached value for k, or computes, stores and returns it.
// Cache failures are never fatal: a broken entry is deleted and recomputed.
func Fetch[T any](ctx context.Context, c *QueryCache, k Key, compute func(context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		return compute(ctx)
	}

	key := c.key(k)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			c.metrics.RecordCacheLookup(ctx, k.View, true)
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}
	c.metrics.RecordCacheLookup(ctx, k.View, false)

	out, err := compute(ctx)
	if err != nil {
		return out, err
	}
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// Invalidate deletes every entry of the namespace
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

func (c *QueryCache) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the Redis client
func (c *QueryCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, ":", "_")
}
