package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Remote is a shared second-level store consulted on a local miss.
// RedisCache implements it.
type Remote interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// GetOrFetch returns the live entry for key, or calls fetch and caches its result for ttl.
// A fetch error is returned as is and nothing is cached, so the next call retries.
// Concurrent misses may fetch twice; the last writer wins.
func GetOrFetch[T any](ctx context.Context, c *MemoryCache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.observe(true)
			return typed, nil
		}
	}

	if c.remote != nil {
		var shared T
		if err := c.remote.Get(ctx, key, &shared); err == nil {
			c.observe(true)
			c.Set(key, shared, ttl)
			return shared, nil
		}
	}

	c.observe(false)
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(key, v, ttl)
	if c.remote != nil {
		// the local copy is authoritative for this process
		_ = c.remote.Set(ctx, key, v, ttl)
	}
	return v, nil
}
