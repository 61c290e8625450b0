package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cinelink/cinelink/internal/model"
)

// migrations are applied in order and rolled back in reverse.
var migrations = []string{
	"000001_catalog",
	"000002_click_events",
}

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates every table for tests.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, migrations[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range migrations {
		if err := applyMigration(ctx, pool, name+".up.sql"); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, file string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	sql, err := os.ReadFile(filepath.Join(root, "migrations", file))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", file, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestMovie creates an active catalog entry with sensible defaults.
func NewTestMovie(t testing.TB, title string) *model.Movie {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Movie{
		ID:        UniqueID("movie"),
		Title:     title,
		Slug:      UniqueID(model.Slugify(title)),
		Type:      model.TypeMovie,
		Year:      2024,
		Genres:    []string{"Drama"},
		Tags:      []string{},
		Language:  "en",
		WatchLink: "https://t.me/cinelink/" + model.Slugify(title),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestSeries creates an active series entry.
func NewTestSeries(t testing.TB, title string) *model.Movie {
	t.Helper()
	m := NewTestMovie(t, title)
	m.Type = model.TypeSeries
	m.Seasons = 1
	return m
}

// NewTestEpisode creates a published episode of the given series.
func NewTestEpisode(t testing.TB, movieID string, season, number int) *model.Episode {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Episode{
		ID:            UniqueID("episode"),
		MovieID:       movieID,
		Season:        season,
		EpisodeNumber: number,
		Title:         fmt.Sprintf("Episode %d", number),
		WatchURL:      fmt.Sprintf("https://t.me/cinelink/%s/%d/%d", movieID, season, number),
		IsPublished:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestClickEvent creates a click event for a movie at the given time.
func NewTestClickEvent(t testing.TB, movieID string, at time.Time) *model.ClickEvent {
	t.Helper()
	return &model.ClickEvent{
		ID:        UniqueID("click"),
		MovieID:   movieID,
		UserAgent: "TestAgent/1.0",
		IPAddress: "203.0.113.10",
		Timestamp: at.UTC(),
	}
}

var idSeq atomic.Uint64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), idSeq.Add(1))
}
