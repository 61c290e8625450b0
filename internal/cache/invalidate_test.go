package cache

import (
	"context"
	"testing"
)

func seed(t *testing.T, c *Cache, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if !c.Set(context.Background(), key, []byte("1"), TTL(FamilyOf(key))) {
			t.Fatalf("seed %q failed", key)
		}
	}
}

func TestInvalidator_InvalidateFamilies(t *testing.T) {
	c, mr := newTestCache(t, Options{})
	inv := NewInvalidator(c, discardLogger(), nil)

	seed(t, c,
		"movies",
		Key(FamilyMovies, Params{"page": 1}),
		Key(FamilyMovies, Params{"page": 2, "type": "series"}),
		Key(FamilyPopularMovies, Params{"limit": 10}),
		Key(FamilyFeaturedMovies, Params{"limit": 10}),
	)

	inv.InvalidateFamilies(context.Background(), FamilyMovies, FamilyPopularMovies)

	for _, key := range mr.Keys() {
		if f := FamilyOf(key); f == FamilyMovies || f == FamilyPopularMovies {
			t.Errorf("key %q survived invalidation", key)
		}
	}
	if !mr.Exists(Key(FamilyFeaturedMovies, Params{"limit": 10})) {
		t.Error("unrelated family must survive")
	}
}

func TestInvalidator_EpisodeScope(t *testing.T) {
	c, mr := newTestCache(t, Options{})
	inv := NewInvalidator(c, discardLogger(), nil)

	target := []string{
		Key(FamilyEpisodes, Params{"movieId": "m1"}),
		Key(FamilyEpisodes, Params{"movieId": "m1", "season": 2, "limit": 50}),
	}
	other := []string{
		Key(FamilyEpisodes, Params{"movieId": "m10", "season": 1}),
		Key(FamilyEpisodes, Params{"movieId": "m2"}),
	}
	seed(t, c, append(target, other...)...)

	inv.EpisodeChanged(context.Background(), "m1")

	for _, key := range target {
		if mr.Exists(key) {
			t.Errorf("key %q should be invalidated", key)
		}
	}
	for _, key := range other {
		if !mr.Exists(key) {
			t.Errorf("key %q should survive", key)
		}
	}
}

func TestInvalidator_Hooks(t *testing.T) {
	tests := []struct {
		name      string
		invoke    func(ctx context.Context, inv *Invalidator)
		dropped   []string
		preserved []string
	}{
		{
			name:      "movie changed",
			invoke:    func(ctx context.Context, inv *Invalidator) { inv.MovieChanged(ctx, "m1") },
			dropped:   []string{FamilyMovies, FamilyFeaturedMovies, FamilyPopularMovies, FamilyGenres, FamilyTags, FamilyEpisodes},
			preserved: []string{FamilyAnalyticsOverview},
		},
		{
			name:      "featured toggled",
			invoke:    func(ctx context.Context, inv *Invalidator) { inv.FeaturedToggled(ctx) },
			dropped:   []string{FamilyFeaturedMovies},
			preserved: []string{FamilyPopularMovies, FamilyEpisodes, FamilyGenres},
		},
		{
			name:      "movie clicked",
			invoke:    func(ctx context.Context, inv *Invalidator) { inv.MovieClicked(ctx) },
			dropped:   []string{FamilyMovies, FamilyPopularMovies},
			preserved: []string{FamilyFeaturedMovies, FamilyEpisodes, FamilyGenres},
		},
		{
			name:      "episode clicked",
			invoke:    func(ctx context.Context, inv *Invalidator) { inv.EpisodeClicked(ctx, "m1") },
			dropped:   []string{FamilyEpisodes, FamilyMovies, FamilyPopularMovies},
			preserved: []string{FamilyFeaturedMovies, FamilyTags},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mr := newTestCache(t, Options{})
			inv := NewInvalidator(c, discardLogger(), nil)

			keyFor := func(family string) string {
				if family == FamilyEpisodes {
					return Key(family, Params{"movieId": "m1", "page": 1})
				}
				return Key(family, Params{"page": 1})
			}
			for _, f := range append(append([]string{}, tt.dropped...), tt.preserved...) {
				seed(t, c, keyFor(f))
			}

			tt.invoke(context.Background(), inv)

			for _, f := range tt.dropped {
				if mr.Exists(keyFor(f)) {
					t.Errorf("family %s should be invalidated", f)
				}
			}
			for _, f := range tt.preserved {
				if !mr.Exists(keyFor(f)) {
					t.Errorf("family %s should survive", f)
				}
			}
		})
	}
}

func TestInvalidator_DisabledCache(t *testing.T) {
	t.Parallel()

	inv := NewInvalidator(nil, nil, nil)
	ctx := context.Background()

	inv.MovieChanged(ctx, "m1")
	inv.FeaturedToggled(ctx)
	inv.MovieClicked(ctx)
	inv.EpisodeChanged(ctx, "m1")
	inv.EpisodeClicked(ctx, "m1")
}
