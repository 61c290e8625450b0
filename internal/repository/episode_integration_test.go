//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/testutil"
)

func createTestSeries(t *testing.T, repo *Repository) *model.Movie {
	t.Helper()
	series := testutil.NewTestSeries(t, "Severance")
	if err := repo.CreateMovie(context.Background(), series); err != nil {
		t.Fatalf("CreateMovie() error = %v", err)
	}
	return series
}

func TestIntegrationEpisode_CreateAndGet(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	series := createTestSeries(t, repo)

	e := testutil.NewTestEpisode(t, series.ID, 1, 1)
	if err := repo.CreateEpisode(ctx, e); err != nil {
		t.Fatalf("CreateEpisode() error = %v", err)
	}

	got, err := repo.GetEpisode(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEpisode() error = %v", err)
	}
	if got.MovieID != series.ID || got.Season != 1 || got.EpisodeNumber != 1 || !got.IsPublished {
		t.Errorf("GetEpisode() = %+v", got)
	}

	dup := testutil.NewTestEpisode(t, series.ID, 1, 1)
	if err := repo.CreateEpisode(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateEpisode(duplicate) error = %v, want ErrDuplicate", err)
	}

	if _, err := repo.GetEpisode(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEpisode(missing) error = %v, want ErrNotFound", err)
	}
}

func TestIntegrationEpisode_UpsertKeepsIdentity(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	series := createTestSeries(t, repo)

	original := testutil.NewTestEpisode(t, series.ID, 2, 3)
	if err := repo.CreateEpisode(ctx, original); err != nil {
		t.Fatalf("CreateEpisode() error = %v", err)
	}
	if _, err := repo.IncrementEpisodeClicks(ctx, original.ID); err != nil {
		t.Fatalf("IncrementEpisodeClicks() error = %v", err)
	}

	replacement := testutil.NewTestEpisode(t, series.ID, 2, 3)
	replacement.Title = "Renamed"
	replacement.UpdatedAt = time.Now().UTC()
	if err := repo.UpsertEpisode(ctx, replacement); err != nil {
		t.Fatalf("UpsertEpisode() error = %v", err)
	}

	if replacement.ID != original.ID {
		t.Errorf("upsert ID = %s, want %s", replacement.ID, original.ID)
	}
	if replacement.Title != "Renamed" || replacement.ClickCount != 1 {
		t.Errorf("upsert result = %+v", replacement)
	}

	fresh := testutil.NewTestEpisode(t, series.ID, 2, 4)
	if err := repo.UpsertEpisode(ctx, fresh); err != nil {
		t.Fatalf("UpsertEpisode(new) error = %v", err)
	}
	if fresh.ClickCount != 0 {
		t.Errorf("new episode ClickCount = %d", fresh.ClickCount)
	}
}

func TestIntegrationEpisode_UpdateAndUnpublish(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	series := createTestSeries(t, repo)

	e := testutil.NewTestEpisode(t, series.ID, 1, 1)
	if err := repo.CreateEpisode(ctx, e); err != nil {
		t.Fatalf("CreateEpisode() error = %v", err)
	}

	e.Title = "Good News About Hell"
	e.UpdatedAt = time.Now().UTC()
	if err := repo.UpdateEpisode(ctx, e); err != nil {
		t.Fatalf("UpdateEpisode() error = %v", err)
	}
	missing := testutil.NewTestEpisode(t, series.ID, 9, 9)
	if err := repo.UpdateEpisode(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateEpisode(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.UnpublishEpisode(ctx, e.ID); err != nil {
		t.Fatalf("UnpublishEpisode() error = %v", err)
	}
	if err := repo.UnpublishEpisode(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second UnpublishEpisode() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.IncrementEpisodeClicks(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("IncrementEpisodeClicks(unpublished) error = %v, want ErrNotFound", err)
	}

	got, _ := repo.GetEpisode(ctx, e.ID)
	if got.IsPublished || got.Title != "Good News About Hell" {
		t.Errorf("GetEpisode() = %+v", got)
	}
}

func TestIntegrationEpisode_ListAndSeasons(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	series := createTestSeries(t, repo)

	var unpublished *model.Episode
	for _, se := range [][2]int{{2, 1}, {1, 2}, {1, 1}, {3, 1}} {
		e := testutil.NewTestEpisode(t, series.ID, se[0], se[1])
		if err := repo.CreateEpisode(ctx, e); err != nil {
			t.Fatalf("CreateEpisode() error = %v", err)
		}
		if se[0] == 3 {
			unpublished = e
		}
	}
	if err := repo.UnpublishEpisode(ctx, unpublished.ID); err != nil {
		t.Fatalf("UnpublishEpisode() error = %v", err)
	}

	episodes, total, err := repo.ListEpisodes(ctx, model.EpisodeFilter{MovieID: series.ID})
	if err != nil {
		t.Fatalf("ListEpisodes() error = %v", err)
	}
	if total != 3 || len(episodes) != 3 {
		t.Fatalf("ListEpisodes() total = %d len = %d", total, len(episodes))
	}
	if episodes[0].Season != 1 || episodes[0].EpisodeNumber != 1 || episodes[2].Season != 2 {
		t.Errorf("unexpected order: %d/%d first, season %d last",
			episodes[0].Season, episodes[0].EpisodeNumber, episodes[2].Season)
	}

	season1, total, _ := repo.ListEpisodes(ctx, model.EpisodeFilter{MovieID: series.ID, Season: 1})
	if total != 2 || len(season1) != 2 {
		t.Errorf("season 1 total = %d", total)
	}

	_, total, _ = repo.ListEpisodes(ctx, model.EpisodeFilter{MovieID: series.ID, IncludeUnpublished: true})
	if total != 4 {
		t.Errorf("with unpublished total = %d, want 4", total)
	}

	seasons, err := repo.ListSeasons(ctx, series.ID)
	if err != nil {
		t.Fatalf("ListSeasons() error = %v", err)
	}
	if len(seasons) != 2 || seasons[0] != 1 || seasons[1] != 2 {
		t.Errorf("ListSeasons() = %v", seasons)
	}
}
