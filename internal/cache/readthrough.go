package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ReadThrough returns the cached value for key, or runs compute on a miss,
// stores the result in the background with ttl, and returns it.
//
// Cache failures never fail the read: an undecodable entry counts as a miss
// and a failed store is only logged.
func ReadThrough[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		return compute(ctx)
	}

	family := FamilyOf(key)
	if data, ok := c.Get(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			c.metrics.IncCacheHit(family)
			return cached, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key)
	}
	c.metrics.IncCacheMiss(family)

	if !c.singleFlight {
		return computeAndStore(ctx, c, key, ttl, compute)
	}

	// The shared computation outlives any one caller; each caller waits on
	// its own ctx.
	ch := c.group.DoChan(key, func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("cache compute for %s panicked: %v", key, r)
			}
		}()
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		return computeAndStore(shared, c, key, ttl, compute)
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(T)
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func computeAndStore[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	value, err := compute(ctx)
	if err != nil {
		return value, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode cache entry", "key", key, "error", err)
		return value, nil
	}
	c.storeAsync(ctx, key, data, ttl)
	return value, nil
}
