// Package service implements the catalog use cases on top of the primary
// store and the read-through cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/repository"
)

// Service errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// CatalogStore is the primary store for catalog entries.
type CatalogStore interface {
	CreateMovie(ctx context.Context, m *model.Movie) error
	GetMovie(ctx context.Context, id string) (*model.Movie, error)
	GetMovieBySlug(ctx context.Context, slug string) (*model.Movie, error)
	UpdateMovie(ctx context.Context, m *model.Movie) error
	DeactivateMovie(ctx context.Context, id string) error
	ToggleFeatured(ctx context.Context, id string) (bool, error)
	IncrementMovieClicks(ctx context.Context, id string, at time.Time) (int64, error)
	ListMovies(ctx context.Context, filter model.MovieFilter) ([]*model.Movie, int64, error)
	ListFeatured(ctx context.Context, limit int) ([]*model.Movie, error)
	ListPopular(ctx context.Context, limit int, typ model.MovieType) ([]*model.Movie, error)
	DistinctGenres(ctx context.Context) ([]string, error)
	DistinctTags(ctx context.Context) ([]string, error)
}

// EpisodeStore is the primary store for episodes.
type EpisodeStore interface {
	CreateEpisode(ctx context.Context, e *model.Episode) error
	UpsertEpisode(ctx context.Context, e *model.Episode) error
	GetEpisode(ctx context.Context, id string) (*model.Episode, error)
	UpdateEpisode(ctx context.Context, e *model.Episode) error
	UnpublishEpisode(ctx context.Context, id string) error
	IncrementEpisodeClicks(ctx context.Context, id string) (int64, error)
	ListEpisodes(ctx context.Context, filter model.EpisodeFilter) ([]*model.Episode, int64, error)
	ListSeasons(ctx context.Context, movieID string) ([]int, error)
}

// ClickLog appends click events.
type ClickLog interface {
	Insert(ctx context.Context, event *model.ClickEvent) error
}

// mapStoreErr translates repository errors into service errors.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func newID() string {
	return ulid.Make().String()
}

// optInt drops zero values from cache key parameters.
func optInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
