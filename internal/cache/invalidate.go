package cache

import (
	"context"
	"log/slog"

	"github.com/cinelink/cinelink/internal/metrics"
)

// Family groups touched by each kind of write.
var (
	movieWriteFamilies = []string{
		FamilyMovies, FamilyFeaturedMovies, FamilyPopularMovies, FamilyGenres, FamilyTags,
	}
	featureToggleFamilies = []string{FamilyFeaturedMovies, FamilyMovies}
	movieClickFamilies    = []string{FamilyMovies, FamilyPopularMovies}
)

// Invalidator drops cached views after writes. Failures are logged by the
// adapter and never reach the caller; a missed invalidation is bounded by
// the entry's TTL.
type Invalidator struct {
	cache   *Cache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewInvalidator creates an Invalidator over c, which may be nil.
func NewInvalidator(c *Cache, logger *slog.Logger, recorder metrics.Recorder) *Invalidator {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{
		cache:   c,
		logger:  logger.With("component", "cache.invalidator"),
		metrics: recorder,
	}
}

// InvalidateFamilies deletes every entry of the given families: keys matching
// "family:*" plus the bare "family" key used by parameterless views.
func (i *Invalidator) InvalidateFamilies(ctx context.Context, families ...string) {
	if !i.cache.Enabled() || len(families) == 0 {
		return
	}

	var keys []string
	for _, family := range families {
		matched := i.cache.Keys(ctx, globEscape(family)+":*")
		keys = append(keys, matched...)
		keys = append(keys, family)
	}

	deleted := i.cache.Delete(ctx, keys...)
	for _, family := range families {
		i.metrics.IncCacheInvalidation(family, countFamily(keys, family))
	}
	i.logger.Debug("cache families invalidated", "families", families, "deleted", deleted)
}

// InvalidateScoped deletes the entries of family that were computed with
// param set to value, leaving other variants of the family intact.
func (i *Invalidator) InvalidateScoped(ctx context.Context, family, param string, value any) {
	if !i.cache.Enabled() {
		return
	}

	var keys []string
	for _, key := range i.cache.Keys(ctx, globEscape(family)+":*") {
		if keyHasParam(key, family, param, value) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return
	}

	deleted := i.cache.Delete(ctx, keys...)
	i.metrics.IncCacheInvalidation(family, len(keys))
	i.logger.Debug("scoped cache entries invalidated",
		"family", family,
		"param", param,
		"deleted", deleted,
	)
}

// MovieChanged handles create, update and soft-delete of a catalog entry.
// movieID may be empty for creations.
func (i *Invalidator) MovieChanged(ctx context.Context, movieID string) {
	i.InvalidateFamilies(ctx, movieWriteFamilies...)
	if movieID != "" {
		i.InvalidateScoped(ctx, FamilyEpisodes, "movieId", movieID)
	}
}

// FeaturedToggled handles a change of the featured flag.
func (i *Invalidator) FeaturedToggled(ctx context.Context) {
	i.InvalidateFamilies(ctx, featureToggleFamilies...)
}

// MovieClicked handles a recorded click on a catalog entry.
func (i *Invalidator) MovieClicked(ctx context.Context) {
	i.InvalidateFamilies(ctx, movieClickFamilies...)
}

// EpisodeChanged handles create, update and unpublish of an episode.
func (i *Invalidator) EpisodeChanged(ctx context.Context, movieID string) {
	i.InvalidateScoped(ctx, FamilyEpisodes, "movieId", movieID)
}

// EpisodeClicked handles a recorded episode click, which also bumps the
// parent's counter.
func (i *Invalidator) EpisodeClicked(ctx context.Context, movieID string) {
	i.InvalidateScoped(ctx, FamilyEpisodes, "movieId", movieID)
	i.InvalidateFamilies(ctx, movieClickFamilies...)
}

func countFamily(keys []string, family string) int {
	n := 0
	for _, key := range keys {
		if FamilyOf(key) == family {
			n++
		}
	}
	return n
}
