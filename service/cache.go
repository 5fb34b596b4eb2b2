package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	stride "stride-engine"
)

const resultKeyPrefix = "stride:result:"

// DefaultCacheTTL bounds how long a cached result stays valid. Analyses are
// deterministic for identical input, so staleness only matters when the
// engine itself changes.
const DefaultCacheTTL = time.Hour

// ResultCache stores serialized analysis results in Redis keyed by a digest
// of the request body.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache connects to Redis and verifies the connection with a ping.
func NewResultCache(addr string, ttl time.Duration) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{client: client, ttl: ttl}, nil
}

// Get returns the cached result for digest, or (nil, false) on a miss.
func (c *ResultCache) Get(ctx context.Context, digest string) (*stride.StreamAnalysisResult, bool) {
	data, err := c.client.Get(ctx, resultKeyPrefix+digest).Bytes()
	if err != nil {
		// Misses and transport errors both fall through to a recompute.
		return nil, false
	}
	var res stride.StreamAnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// Put stores a result under digest with the cache TTL. Errors are returned
// so callers can count them, but a failed write never fails the request.
func (c *ResultCache) Put(ctx context.Context, digest string, res *stride.StreamAnalysisResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal cached result: %w", err)
	}
	if err := c.client.Set(ctx, resultKeyPrefix+digest, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}

// Ping reports whether the Redis connection is alive.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
