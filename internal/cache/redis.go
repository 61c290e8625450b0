// Package cache provides the Redis-backed read-through cache and its
// invalidation coordinator.
//
// The cache is advisory: every operation degrades to a miss or a no-op when
// Redis is unreachable or was never configured, and errors are logged rather
// than returned.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/cinelink/cinelink/internal/metrics"
)

// ErrDisabled is returned by Ping when no cache store is configured.
var ErrDisabled = errors.New("cache disabled")

const (
	scanCount   = 500
	deleteBatch = 500
)

// Options configures the cache adapter.
type Options struct {
	// URL is a redis:// URL. Empty disables caching.
	URL string

	DialTimeout  time.Duration
	OpTimeout    time.Duration
	WriteTimeout time.Duration

	// SingleFlight collapses concurrent misses on the same key.
	SingleFlight bool
	// ComputeTimeout bounds a shared single-flight computation, which runs
	// detached from the request that started it.
	ComputeTimeout time.Duration

	BreakerFailures uint32
	BreakerCooldown time.Duration

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

func (o *Options) setDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 250 * time.Millisecond
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 250 * time.Millisecond
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = time.Second
	}
	if o.ComputeTimeout <= 0 {
		o.ComputeTimeout = 30 * time.Second
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNoop()
	}
}

// Cache wraps a Redis client. A nil *Cache, or one built without a URL,
// behaves as a disabled cache.
type Cache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
	metrics metrics.Recorder

	opTimeout      time.Duration
	writeTimeout   time.Duration
	computeTimeout time.Duration
	singleFlight   bool
	group          singleflight.Group
	pending        sync.WaitGroup
}

// New creates a Cache. It only fails on a malformed URL; an unreachable
// server is logged and the cache starts degraded.
func New(ctx context.Context, opts Options) (*Cache, error) {
	opts.setDefaults()
	logger := opts.Logger.With("component", "cache")

	c := &Cache{
		logger:         logger,
		metrics:        opts.Metrics,
		opTimeout:      opts.OpTimeout,
		writeTimeout:   opts.WriteTimeout,
		computeTimeout: opts.ComputeTimeout,
		singleFlight:   opts.SingleFlight,
	}

	if opts.URL == "" {
		logger.Warn("no cache store configured, caching disabled")
		return c, nil
	}

	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Fail fast: a slow cache must never add noticeable latency.
	opt.DialTimeout = opts.DialTimeout
	opt.ReadTimeout = opts.OpTimeout
	opt.WriteTimeout = opts.OpTimeout
	opt.MaxRetries = 1
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = opts.OpTimeout
	opt.ConnMaxIdleTime = 5 * time.Minute

	c.client = redis.NewClient(opt)
	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "cache",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := c.client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("cache store unreachable, continuing without cache until it recovers",
			"error", err,
		)
	}

	return c, nil
}

// Enabled reports whether a cache store is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	return c.client.Ping(ctx).Err()
}

// Get returns the stored bytes for key. ok is false on a miss or any failure.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	v, err := c.do(ctx, "get", func(ctx context.Context) (any, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if err != nil {
		return nil, false
	}
	return v.([]byte), true
}

// Set stores value under key with the given TTL and reports success.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}
	_, err := c.do(ctx, "set", func(ctx context.Context) (any, error) {
		return nil, c.client.Set(ctx, key, value, ttl).Err()
	})
	return err == nil
}

// Delete removes the given keys in pipelined batches and returns how many
// existed.
func (c *Cache) Delete(ctx context.Context, keys ...string) int {
	if !c.Enabled() || len(keys) == 0 {
		return 0
	}
	v, err := c.do(ctx, "delete", func(ctx context.Context) (any, error) {
		pipe := c.client.Pipeline()
		cmds := make([]*redis.IntCmd, 0, len(keys)/deleteBatch+1)
		for start := 0; start < len(keys); start += deleteBatch {
			end := min(start+deleteBatch, len(keys))
			cmds = append(cmds, pipe.Unlink(ctx, keys[start:end]...))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
		var n int64
		for _, cmd := range cmds {
			n += cmd.Val()
		}
		return int(n), nil
	})
	if err != nil {
		return 0
	}
	return v.(int)
}

// Keys returns all keys matching a glob pattern using SCAN.
func (c *Cache) Keys(ctx context.Context, pattern string) []string {
	if !c.Enabled() {
		return nil
	}
	v, err := c.do(ctx, "scan", func(ctx context.Context) (any, error) {
		var (
			keys   []string
			cursor uint64
		)
		for {
			batch, next, err := c.client.Scan(ctx, cursor, pattern, scanCount).Result()
			if err != nil {
				return nil, err
			}
			keys = append(keys, batch...)
			cursor = next
			if cursor == 0 {
				return keys, nil
			}
		}
	})
	if err != nil {
		return nil
	}
	return v.([]string)
}

// DeleteByPattern expands a glob pattern and deletes the matches as a batch.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) int {
	keys := c.Keys(ctx, pattern)
	return c.Delete(ctx, keys...)
}

// Flush drops every key in the current Redis database.
func (c *Cache) Flush(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	_, err := c.do(ctx, "flush", func(ctx context.Context) (any, error) {
		return nil, c.client.FlushDB(ctx).Err()
	})
	if err == nil {
		c.logger.Info("cache flushed")
	}
	return err == nil
}

// storeAsync writes value in the background so the caller never waits on
// the cache store.
func (c *Cache) storeAsync(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.writeTimeout)
		defer cancel()
		c.Set(ctx, key, value, ttl)
	}()
}

// WaitWrites blocks until background writes have finished.
func (c *Cache) WaitWrites() {
	if c == nil {
		return
	}
	c.pending.Wait()
}

// Close waits for pending writes, bounded by ctx, and closes the client.
func (c *Cache) Close(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("closing cache with pending writes", "error", ctx.Err())
	}
	return c.client.Close()
}

// do runs one Redis round trip through the circuit breaker with the
// operation timeout applied.
func (c *Cache) do(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	v, err := c.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	switch {
	case err == nil, errors.Is(err, redis.Nil):
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.IncCacheError(op)
		c.logger.Debug("cache operation skipped, breaker open", "op", op)
	default:
		c.metrics.IncCacheError(op)
		c.logger.Warn("cache operation failed", "op", op, "error", err)
	}
	return v, err
}
