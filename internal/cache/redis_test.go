package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/cinelink/cinelink/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCache starts an in-process Redis and returns a Cache bound to it.
func newTestCache(t *testing.T, opts Options) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	opts.URL = "redis://" + mr.Addr()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	c, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, mr
}

func TestCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t, Options{})
	ctx := context.Background()

	if !c.Set(ctx, "movies:page:1", []byte(`[1,2]`), 5*time.Minute) {
		t.Fatal("expected Set to succeed")
	}

	got, ok := c.Get(ctx, "movies:page:1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != `[1,2]` {
		t.Errorf("Get() = %q", got)
	}
	if ttl := mr.TTL("movies:page:1"); ttl != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", ttl)
	}

	if _, ok := c.Get(ctx, "movies:page:2"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_DeleteByPattern(t *testing.T) {
	c, mr := newTestCache(t, Options{})
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		_ = mr.Set(fmt.Sprintf("movies:page:%d", i), "x")
	}
	_ = mr.Set("featured_movies:limit:10", "x")
	_ = mr.Set("movies", "x")

	deleted := c.DeleteByPattern(ctx, "movies:*")
	if deleted != 1200 {
		t.Errorf("deleted = %d, want 1200", deleted)
	}
	if !mr.Exists("featured_movies:limit:10") {
		t.Error("pattern must not match other families")
	}
	if !mr.Exists("movies") {
		t.Error("bare family key is not matched by family:*")
	}
}

func TestCache_DeleteExact(t *testing.T) {
	c, mr := newTestCache(t, Options{})
	ctx := context.Background()

	_ = mr.Set("genres", "x")
	if n := c.Delete(ctx, "genres", "missing"); n != 1 {
		t.Errorf("Delete() = %d, want 1", n)
	}
	if mr.Exists("genres") {
		t.Error("expected key removed")
	}
}

func TestCache_Flush(t *testing.T) {
	c, mr := newTestCache(t, Options{})

	_ = mr.Set("a", "1")
	_ = mr.Set("b", "2")

	if !c.Flush(context.Background()) {
		t.Fatal("expected Flush to succeed")
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("expected empty store, got %v", mr.Keys())
	}
}

func TestCache_Disabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, err := New(ctx, Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for name, cache := range map[string]*Cache{"unconfigured": c, "nil": nil} {
		if cache.Enabled() {
			t.Errorf("%s: expected disabled", name)
		}
		if cache.Set(ctx, "k", []byte("v"), time.Minute) {
			t.Errorf("%s: Set should report no-op", name)
		}
		if _, ok := cache.Get(ctx, "k"); ok {
			t.Errorf("%s: Get should miss", name)
		}
		if n := cache.DeleteByPattern(ctx, "*"); n != 0 {
			t.Errorf("%s: DeleteByPattern = %d", name, n)
		}
		if cache.Flush(ctx) {
			t.Errorf("%s: Flush should report no-op", name)
		}
		if err := cache.Ping(ctx); err != ErrDisabled {
			t.Errorf("%s: Ping() = %v, want ErrDisabled", name, err)
		}
		if err := cache.Close(ctx); err != nil {
			t.Errorf("%s: Close() = %v", name, err)
		}
	}
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Options{URL: "://bad", Logger: discardLogger()}); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	recorder := metrics.NewInMemory()
	c, err := New(context.Background(), Options{
		URL:             "redis://" + addr,
		DialTimeout:     50 * time.Millisecond,
		OpTimeout:       50 * time.Millisecond,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
		Logger:          discardLogger(),
		Metrics:         recorder,
	})
	if err != nil {
		t.Fatalf("New() must not fail for an unreachable store: %v", err)
	}
	defer c.Close(context.Background())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, ok := c.Get(ctx, "k"); ok {
			t.Fatal("expected miss")
		}
	}
	if c.Set(ctx, "k", []byte("v"), time.Minute) {
		t.Error("expected Set to fail")
	}

	// After the breaker trips, calls return without touching the network.
	start := time.Now()
	c.Get(ctx, "k")
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("expected fail-fast with open breaker, took %v", elapsed)
	}

	if recorder.Snapshot().CacheErrors["get"] == 0 {
		t.Error("expected cache errors to be recorded")
	}
}
