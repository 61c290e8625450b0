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

const (
	defaultFeaturedLimit = 10
	defaultPopularLimit  = 10
	maxRankingLimit      = 50
)

// CatalogService serves catalog reads through the cache and applies admin
// writes followed by cache invalidation.
type CatalogService struct {
	store       CatalogStore
	cache       *cache.Cache
	invalidator *cache.Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewCatalogService creates a new CatalogService. c may be nil.
func NewCatalogService(store CatalogStore, c *cache.Cache, invalidator *cache.Invalidator, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:       store,
		cache:       c,
		invalidator: invalidator,
		logger:      logger.With("component", "service.catalog"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of active catalog entries.
func (s *CatalogService) List(ctx context.Context, filter model.MovieFilter) (*model.Page[*model.Movie], error) {
	filter.IncludeInactive = false
	filter.Normalize()

	sortOrder := "desc"
	if filter.SortAsc {
		sortOrder = "asc"
	}
	key := cache.Key(cache.FamilyMovies, cache.Params{
		"page":      filter.Page,
		"limit":     filter.Limit,
		"type":      filter.Type,
		"genre":     filter.Genre,
		"tag":       filter.Tag,
		"year":      optInt(filter.Year),
		"language":  filter.Language,
		"search":    filter.Search,
		"featured":  filter.Featured,
		"sortBy":    filter.Sort,
		"sortOrder": sortOrder,
	})

	return cache.ReadThrough(ctx, s.cache, key, cache.TTL(cache.FamilyMovies), func(ctx context.Context) (*model.Page[*model.Movie], error) {
		return s.listMovies(ctx, filter)
	})
}

// AdminList returns one page of entries including inactive ones. It is not
// cached so admin views always reflect the latest writes.
func (s *CatalogService) AdminList(ctx context.Context, filter model.MovieFilter) (*model.Page[*model.Movie], error) {
	filter.IncludeInactive = true
	filter.Normalize()
	return s.listMovies(ctx, filter)
}

func (s *CatalogService) listMovies(ctx context.Context, filter model.MovieFilter) (*model.Page[*model.Movie], error) {
	movies, total, err := s.store.ListMovies(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &model.Page[*model.Movie]{
		Items:      movies,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Featured returns active featured entries.
func (s *CatalogService) Featured(ctx context.Context, limit int) ([]*model.Movie, error) {
	limit = clampLimit(limit, defaultFeaturedLimit)
	key := cache.Key(cache.FamilyFeaturedMovies, cache.Params{"limit": limit})

	return cache.ReadThrough(ctx, s.cache, key, cache.TTL(cache.FamilyFeaturedMovies), func(ctx context.Context) ([]*model.Movie, error) {
		movies, err := s.store.ListFeatured(ctx, limit)
		return movies, mapStoreErr(err)
	})
}

// Popular returns active entries ranked by click count.
func (s *CatalogService) Popular(ctx context.Context, limit int, typ model.MovieType) ([]*model.Movie, error) {
	limit = clampLimit(limit, defaultPopularLimit)
	if typ != "" && !typ.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, typ)
	}
	key := cache.Key(cache.FamilyPopularMovies, cache.Params{"limit": limit, "type": typ})

	return cache.ReadThrough(ctx, s.cache, key, cache.TTL(cache.FamilyPopularMovies), func(ctx context.Context) ([]*model.Movie, error) {
		movies, err := s.store.ListPopular(ctx, limit, typ)
		return movies, mapStoreErr(err)
	})
}

// Get returns an active entry by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Movie, error) {
	key := cache.Key(cache.FamilyMovies, cache.Params{"id": id})

	return cache.ReadThrough(ctx, s.cache, key, cache.TTL(cache.FamilyMovies), func(ctx context.Context) (*model.Movie, error) {
		return s.activeMovie(ctx, id)
	})
}

// GetBySlug returns an active entry by slug.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*model.Movie, error) {
	key := cache.Key(cache.FamilyMovies, cache.Params{"slug": slug})

	return cache.ReadThrough(ctx, s.cache, key, cache.TTL(cache.FamilyMovies), func(ctx context.Context) (*model.Movie, error) {
		m, err := s.store.GetMovieBySlug(ctx, slug)
		return m, mapStoreErr(err)
	})
}

// Genres returns the distinct genres of active entries.
func (s *CatalogService) Genres(ctx context.Context) ([]string, error) {
	return cache.ReadThrough(ctx, s.cache, cache.Key(cache.FamilyGenres, nil), cache.TTL(cache.FamilyGenres), func(ctx context.Context) ([]string, error) {
		genres, err := s.store.DistinctGenres(ctx)
		return genres, mapStoreErr(err)
	})
}

// Tags returns the distinct tags of active entries.
func (s *CatalogService) Tags(ctx context.Context) ([]string, error) {
	return cache.ReadThrough(ctx, s.cache, cache.Key(cache.FamilyTags, nil), cache.TTL(cache.FamilyTags), func(ctx context.Context) ([]string, error) {
		tags, err := s.store.DistinctTags(ctx)
		return tags, mapStoreErr(err)
	})
}

// MovieInput defines input for creating a catalog entry.
type MovieInput struct {
	Title         string
	OriginalTitle string
	Slug          string
	Type          model.MovieType
	Year          int
	Genres        []string
	Tags          []string
	Language      string
	Description   string
	WatchLink     string
	PosterURL     string
	TrailerURL    string
	BackdropURL   string
	Rating        float64
	Duration      string
	Seasons       int
	EpisodeCount  int
	IsFeatured    bool
}

// Create adds a new active catalog entry.
func (s *CatalogService) Create(ctx context.Context, input MovieInput) (*model.Movie, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.WatchLink) == "" {
		return nil, fmt.Errorf("%w: title and link are required", ErrInvalidInput)
	}
	typ := input.Type
	if typ == "" {
		typ = model.TypeMovie
	}
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, typ)
	}
	slug := input.Slug
	if slug == "" {
		slug = model.Slugify(input.Title)
	}

	now := s.now()
	m := &model.Movie{
		ID:            newID(),
		Title:         strings.TrimSpace(input.Title),
		OriginalTitle: input.OriginalTitle,
		Slug:          slug,
		Type:          typ,
		Year:          input.Year,
		Genres:        nonNil(input.Genres),
		Tags:          nonNil(input.Tags),
		Language:      input.Language,
		Description:   input.Description,
		WatchLink:     input.WatchLink,
		PosterURL:     input.PosterURL,
		TrailerURL:    input.TrailerURL,
		BackdropURL:   input.BackdropURL,
		Rating:        input.Rating,
		Duration:      input.Duration,
		Seasons:       input.Seasons,
		EpisodeCount:  input.EpisodeCount,
		IsActive:      true,
		IsFeatured:    input.IsFeatured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateMovie(ctx, m); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidator.MovieChanged(ctx, "")
	s.logger.Info("movie created", "movie_id", m.ID, "slug", m.Slug)
	return m, nil
}

// MovieUpdate holds optional field changes; nil fields are left untouched.
type MovieUpdate struct {
	Title         *string
	OriginalTitle *string
	Type          *model.MovieType
	Year          *int
	Genres        *[]string
	Tags          *[]string
	Language      *string
	Description   *string
	WatchLink     *string
	PosterURL     *string
	TrailerURL    *string
	BackdropURL   *string
	Rating        *float64
	Duration      *string
	Seasons       *int
	EpisodeCount  *int
	IsActive      *bool
	IsFeatured    *bool
}

func (u MovieUpdate) apply(m *model.Movie) error {
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		m.Title = strings.TrimSpace(*u.Title)
		m.Slug = model.Slugify(m.Title)
	}
	if u.Type != nil {
		if !u.Type.IsValid() {
			return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *u.Type)
		}
		m.Type = *u.Type
	}
	if u.WatchLink != nil {
		if strings.TrimSpace(*u.WatchLink) == "" {
			return fmt.Errorf("%w: link cannot be empty", ErrInvalidInput)
		}
		m.WatchLink = *u.WatchLink
	}
	setIf(&m.OriginalTitle, u.OriginalTitle)
	setIf(&m.Year, u.Year)
	setIf(&m.Language, u.Language)
	setIf(&m.Description, u.Description)
	setIf(&m.PosterURL, u.PosterURL)
	setIf(&m.TrailerURL, u.TrailerURL)
	setIf(&m.BackdropURL, u.BackdropURL)
	setIf(&m.Rating, u.Rating)
	setIf(&m.Duration, u.Duration)
	setIf(&m.Seasons, u.Seasons)
	setIf(&m.EpisodeCount, u.EpisodeCount)
	setIf(&m.IsActive, u.IsActive)
	setIf(&m.IsFeatured, u.IsFeatured)
	if u.Genres != nil {
		m.Genres = nonNil(*u.Genres)
	}
	if u.Tags != nil {
		m.Tags = nonNil(*u.Tags)
	}
	return nil
}

// Update applies field changes to an entry, active or not.
func (s *CatalogService) Update(ctx context.Context, id string, update MovieUpdate) (*model.Movie, error) {
	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := update.apply(m); err != nil {
		return nil, err
	}
	m.UpdatedAt = s.now()

	if err := s.store.UpdateMovie(ctx, m); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidator.MovieChanged(ctx, m.ID)
	return m, nil
}

// Delete soft-deletes an entry.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeactivateMovie(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	s.invalidator.MovieChanged(ctx, id)
	s.logger.Info("movie deactivated", "movie_id", id)
	return nil
}

// ToggleFeatured flips an active entry's featured flag and returns the new value.
func (s *CatalogService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	featured, err := s.store.ToggleFeatured(ctx, id)
	if err != nil {
		return false, mapStoreErr(err)
	}

	s.invalidator.FeaturedToggled(ctx)
	return featured, nil
}

func (s *CatalogService) activeMovie(ctx context.Context, id string) (*model.Movie, error) {
	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !m.IsActive {
		return nil, ErrNotFound
	}
	return m, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxRankingLimit)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
