package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/model"
)

// EpisodeListing is one page of a series' episodes.
type EpisodeListing struct {
	MovieID    string           `json:"movieId"`
	MovieTitle string           `json:"movieTitle"`
	Seasons    []int            `json:"seasons"`
	Episodes   []*model.Episode `json:"episodes"`
	Pagination model.Pagination `json:"pagination"`
}

// EpisodeService serves episode reads through the cache and applies admin
// writes with invalidation scoped to the parent series.
type EpisodeService struct {
	store       EpisodeStore
	movies      CatalogStore
	cache       *cache.Cache
	invalidator *cache.Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewEpisodeService creates a new EpisodeService. c may be nil.
func NewEpisodeService(store EpisodeStore, movies CatalogStore, c *cache.Cache, invalidator *cache.Invalidator, logger *slog.Logger) *EpisodeService {
	return &EpisodeService{
		store:       store,
		movies:      movies,
		cache:       c,
		invalidator: invalidator,
		logger:      logger.With("component", "service.episode"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListByMovie returns published episodes of an active series.
func (s *EpisodeService) ListByMovie(ctx context.Context, filter model.EpisodeFilter) (*EpisodeListing, error) {
	filter.IncludeUnpublished = false
	filter.Normalize()

	key := cache.Key(cache.FamilyEpisodes, cache.Params{
		"movieId": filter.MovieID,
		"season":  optInt(filter.Season),
		"page":    filter.Page,
		"limit":   filter.Limit,
	})

	return cache.ReadThrough(ctx, s.cache, key, cache.TTL(cache.FamilyEpisodes), func(ctx context.Context) (*EpisodeListing, error) {
		movie, err := s.movies.GetMovie(ctx, filter.MovieID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if !movie.IsActive {
			return nil, ErrNotFound
		}

		episodes, total, err := s.store.ListEpisodes(ctx, filter)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		seasons, err := s.store.ListSeasons(ctx, filter.MovieID)
		if err != nil {
			return nil, mapStoreErr(err)
		}

		return &EpisodeListing{
			MovieID:    movie.ID,
			MovieTitle: movie.Title,
			Seasons:    seasons,
			Episodes:   episodes,
			Pagination: model.NewPagination(filter.Page, filter.Limit, total),
		}, nil
	})
}

// Get returns a published episode by ID.
func (s *EpisodeService) Get(ctx context.Context, id string) (*model.Episode, error) {
	e, err := s.store.GetEpisode(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !e.IsPublished {
		return nil, ErrNotFound
	}
	return e, nil
}

// EpisodeInput defines input for creating or importing an episode.
type EpisodeInput struct {
	Season        int
	EpisodeNumber int
	Title         string
	Description   string
	Duration      string
	ThumbnailURL  string
	TrailerURL    string
	WatchURL      string
	// Unpublished creates the episode hidden.
	Unpublished bool
}

func (s *EpisodeService) newEpisode(movieID string, input EpisodeInput) (*model.Episode, error) {
	if input.EpisodeNumber < 1 || strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.WatchURL) == "" {
		return nil, fmt.Errorf("%w: episode number, title and watch URL are required", ErrInvalidInput)
	}
	season := input.Season
	if season < 1 {
		season = 1
	}

	now := s.now()
	return &model.Episode{
		ID:            newID(),
		MovieID:       movieID,
		Season:        season,
		EpisodeNumber: input.EpisodeNumber,
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Duration:      input.Duration,
		ThumbnailURL:  input.ThumbnailURL,
		TrailerURL:    input.TrailerURL,
		WatchURL:      input.WatchURL,
		IsPublished:   !input.Unpublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Create adds an episode to an existing series.
func (s *EpisodeService) Create(ctx context.Context, movieID string, input EpisodeInput) (*model.Episode, error) {
	if _, err := s.movies.GetMovie(ctx, movieID); err != nil {
		return nil, mapStoreErr(err)
	}
	e, err := s.newEpisode(movieID, input)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateEpisode(ctx, e); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidator.EpisodeChanged(ctx, movieID)
	return e, nil
}

// Import upserts a batch of episodes for one series keyed by season and
// episode number. Episodes stored before a failure are kept.
func (s *EpisodeService) Import(ctx context.Context, movieID string, inputs []EpisodeInput) ([]*model.Episode, error) {
	if _, err := s.movies.GetMovie(ctx, movieID); err != nil {
		return nil, mapStoreErr(err)
	}

	stored := make([]*model.Episode, 0, len(inputs))
	defer func() {
		if len(stored) > 0 {
			s.invalidator.EpisodeChanged(ctx, movieID)
		}
	}()

	for i, input := range inputs {
		e, err := s.newEpisode(movieID, input)
		if err != nil {
			return stored, fmt.Errorf("episode %d: %w", i, err)
		}
		if err := s.store.UpsertEpisode(ctx, e); err != nil {
			return stored, fmt.Errorf("episode %d: %w", i, mapStoreErr(err))
		}
		stored = append(stored, e)
	}

	s.logger.Info("episodes imported", "movie_id", movieID, "count", len(stored))
	return stored, nil
}

// EpisodeUpdate holds optional field changes; nil fields are left untouched.
type EpisodeUpdate struct {
	Season        *int
	EpisodeNumber *int
	Title         *string
	Description   *string
	Duration      *string
	ThumbnailURL  *string
	TrailerURL    *string
	WatchURL      *string
	IsPublished   *bool
}

// Update applies field changes to an episode.
func (s *EpisodeService) Update(ctx context.Context, id string, update EpisodeUpdate) (*model.Episode, error) {
	e, err := s.store.GetEpisode(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if update.EpisodeNumber != nil && *update.EpisodeNumber < 1 {
		return nil, fmt.Errorf("%w: episode number must be positive", ErrInvalidInput)
	}
	if update.Season != nil && *update.Season < 1 {
		return nil, fmt.Errorf("%w: season must be positive", ErrInvalidInput)
	}
	setIf(&e.Season, update.Season)
	setIf(&e.EpisodeNumber, update.EpisodeNumber)
	setIf(&e.Title, update.Title)
	setIf(&e.Description, update.Description)
	setIf(&e.Duration, update.Duration)
	setIf(&e.ThumbnailURL, update.ThumbnailURL)
	setIf(&e.TrailerURL, update.TrailerURL)
	setIf(&e.WatchURL, update.WatchURL)
	setIf(&e.IsPublished, update.IsPublished)
	e.UpdatedAt = s.now()

	if err := s.store.UpdateEpisode(ctx, e); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidator.EpisodeChanged(ctx, e.MovieID)
	return e, nil
}

// Delete unpublishes an episode.
func (s *EpisodeService) Delete(ctx context.Context, id string) error {
	e, err := s.store.GetEpisode(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := s.store.UnpublishEpisode(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	s.invalidator.EpisodeChanged(ctx, e.MovieID)
	return nil
}
