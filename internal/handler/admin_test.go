package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cinelink/cinelink/internal/handler/dto"
	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/scheduler"
)

func TestAdmin_RequiresToken(t *testing.T) {
	env := newTestEnv(t, 60)

	tests := []struct {
		name   string
		header []string
	}{
		{"missing", nil},
		{"wrong", []string{"Authorization", "Bearer nope"}},
		{"wrong scheme", []string{"Authorization", "Basic " + testAdminToken}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/admin/movies", nil, tt.header...)
			expectStatus(t, rec, http.StatusUnauthorized)
			if errorCode(t, rec) != "UNAUTHORIZED" {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}

	rec := env.admin(t, http.MethodGet, "/api/admin/movies", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestAdmin_MovieLifecycle(t *testing.T) {
	env := newTestEnv(t, 60)

	// Prime the public listing cache.
	expectStatus(t, env.do(t, http.MethodGet, "/api/movies", nil), http.StatusOK)

	rec := env.admin(t, http.MethodPost, "/api/admin/movies", map[string]any{
		"title":        "Dune",
		"telegramLink": "https://t.me/cinelink/dune",
		"genre":        []string{"Sci-Fi"},
		"year":         2021,
	})
	expectStatus(t, rec, http.StatusCreated)
	var created model.Movie
	decodeData(t, rec, &created)
	if created.Slug != "dune" || !created.IsActive || created.Type != model.TypeMovie {
		t.Fatalf("created = %+v", created)
	}

	// The cached listing is invalidated by the create.
	rec = env.do(t, http.MethodGet, "/api/movies", nil)
	var list dto.ListResponse[*model.Movie]
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Data) != 1 {
		t.Fatalf("public listing has %d entries after create, want 1", len(list.Data))
	}

	rec = env.admin(t, http.MethodPost, "/api/admin/movies", map[string]any{
		"title":        "Dune",
		"telegramLink": "https://t.me/cinelink/dune-2",
	})
	expectStatus(t, rec, http.StatusConflict)

	// Prime the detail cache, then update.
	expectStatus(t, env.do(t, http.MethodGet, "/api/movies/"+created.ID, nil), http.StatusOK)
	rec = env.admin(t, http.MethodPut, "/api/admin/movies/"+created.ID, map[string]any{"title": "Dune: Part One"})
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/api/movies/"+created.ID, nil)
	var fetched model.Movie
	decodeData(t, rec, &fetched)
	if fetched.Title != "Dune: Part One" {
		t.Errorf("detail after update = %q, want the new title", fetched.Title)
	}

	rec = env.admin(t, http.MethodPut, "/api/admin/movies/"+created.ID+"/feature", nil)
	expectStatus(t, rec, http.StatusOK)
	var feature dto.FeatureResponse
	decodeData(t, rec, &feature)
	if !feature.IsFeatured || feature.ID != created.ID {
		t.Errorf("feature = %+v", feature)
	}

	rec = env.admin(t, http.MethodDelete, "/api/admin/movies/"+created.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, "/api/movies/"+created.ID, nil), http.StatusNotFound)

	// Admin listings still include the deactivated entry.
	rec = env.admin(t, http.MethodGet, "/api/admin/movies", nil)
	list = dto.ListResponse[*model.Movie]{}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].IsActive {
		t.Errorf("admin listing = %+v", list.Data)
	}
}

func TestAdmin_CreateMovieValidation(t *testing.T) {
	env := newTestEnv(t, 60)

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"empty body", "", "INVALID_REQUEST"},
		{"malformed", `{"title":`, "INVALID_REQUEST"},
		{"unknown field", map[string]any{"title": "X", "telegramLink": "https://t.me/x", "owner": "me"}, "INVALID_REQUEST"},
		{"missing link", map[string]any{"title": "X"}, "INVALID_INPUT"},
		{"bad type", map[string]any{"title": "X", "telegramLink": "https://t.me/x", "type": "short"}, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.admin(t, http.MethodPost, "/api/admin/movies", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
			if got := errorCode(t, rec); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}

	expectStatus(t, env.admin(t, http.MethodPut, "/api/admin/movies/missing/feature", nil), http.StatusNotFound)
}

func TestAdmin_Episodes(t *testing.T) {
	env := newTestEnv(t, 60)
	series := env.seedMovie(t, "Dark", func(m *model.Movie) { m.Type = model.TypeSeries })
	base := "/api/admin/movies/" + series.ID + "/episodes"

	// Prime the public episode listing.
	expectStatus(t, env.do(t, http.MethodGet, "/api/movies/"+series.ID+"/episodes", nil), http.StatusOK)

	rec := env.admin(t, http.MethodPost, base, map[string]any{
		"season":        1,
		"episodeNumber": 1,
		"title":         "Secrets",
		"watchUrl":      "https://t.me/cinelink/dark/1",
	})
	expectStatus(t, rec, http.StatusCreated)
	var ep model.Episode
	decodeData(t, rec, &ep)
	if !ep.IsPublished || ep.MovieID != series.ID {
		t.Fatalf("episode = %+v", ep)
	}

	rec = env.do(t, http.MethodGet, "/api/movies/"+series.ID+"/episodes", nil)
	var listing struct {
		Episodes []model.Episode `json:"episodes"`
	}
	decodeData(t, rec, &listing)
	if len(listing.Episodes) != 1 {
		t.Errorf("public listing has %d episodes after create, want 1", len(listing.Episodes))
	}

	expectStatus(t, env.admin(t, http.MethodPost, "/api/admin/movies/missing/episodes", map[string]any{
		"episodeNumber": 1, "title": "x", "watchUrl": "https://t.me/x",
	}), http.StatusNotFound)

	title := "Lies"
	rec = env.admin(t, http.MethodPut, "/api/admin/episodes/"+ep.ID, map[string]any{"title": title})
	expectStatus(t, rec, http.StatusOK)
	decodeData(t, rec, &ep)
	if ep.Title != title {
		t.Errorf("Title = %q, want %q", ep.Title, title)
	}

	expectStatus(t, env.admin(t, http.MethodDelete, "/api/admin/episodes/"+ep.ID, nil), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, "/api/episodes/"+ep.ID, nil), http.StatusNotFound)
}

func TestAdmin_ImportEpisodes(t *testing.T) {
	env := newTestEnv(t, 60)
	series := env.seedMovie(t, "Lost", func(m *model.Movie) { m.Type = model.TypeSeries })
	target := "/api/admin/movies/" + series.ID + "/episodes/import"

	episode := func(n int, title string) map[string]any {
		return map[string]any{
			"season":        1,
			"episodeNumber": n,
			"title":         title,
			"watchUrl":      "https://t.me/cinelink/lost/1",
		}
	}

	rec := env.admin(t, http.MethodPost, target, map[string]any{
		"episodes": []any{episode(1, "Pilot"), episode(2, "Part 2")},
	})
	expectStatus(t, rec, http.StatusOK)
	var resp dto.ImportResponse
	decodeData(t, rec, &resp)
	if resp.Imported != 2 || resp.Error != "" {
		t.Errorf("import = %+v", resp)
	}

	// Re-importing upserts by season and number; the invalid third entry
	// stops the batch after the first two are stored.
	rec = env.admin(t, http.MethodPost, target, map[string]any{
		"episodes": []any{episode(1, "Pilot (Part 1)"), episode(3, "Tabula Rasa"), episode(4, "")},
	})
	expectStatus(t, rec, http.StatusMultiStatus)
	resp = dto.ImportResponse{}
	decodeData(t, rec, &resp)
	if resp.Imported != 2 || resp.Error == "" {
		t.Errorf("partial import = %+v", resp)
	}

	rec = env.admin(t, http.MethodPost, target, map[string]any{"episodes": []any{episode(5, "")}})
	expectStatus(t, rec, http.StatusBadRequest)
	if errorCode(t, rec) != "INVALID_INPUT" {
		t.Errorf("body = %s", rec.Body.String())
	}

	expectStatus(t, env.admin(t, http.MethodPost, target, map[string]any{"episodes": []any{}}), http.StatusBadRequest)

	listed, total, err := env.store.ListEpisodes(context.Background(), model.EpisodeFilter{MovieID: series.ID, Limit: 50, Page: 1})
	if err != nil {
		t.Fatalf("ListEpisodes() error = %v", err)
	}
	if total != 3 || len(listed) != 3 {
		t.Errorf("stored episodes = %d, want 3", total)
	}
}

func TestAdmin_FlushCache(t *testing.T) {
	env := newTestEnv(t, 60)
	env.seedMovie(t, "Cached", nil)

	expectStatus(t, env.do(t, http.MethodGet, "/api/movies", nil), http.StatusOK)
	if len(env.redis.Keys()) == 0 {
		t.Fatal("expected the listing to be cached")
	}

	rec := env.admin(t, http.MethodPost, "/api/admin/cache/flush", nil)
	expectStatus(t, rec, http.StatusOK)
	var resp dto.FlushResponse
	decodeData(t, rec, &resp)
	if !resp.Flushed {
		t.Error("Flushed = false, want true")
	}
	if keys := env.redis.Keys(); len(keys) != 0 {
		t.Errorf("keys after flush = %v", keys)
	}
}

func TestAdmin_Jobs(t *testing.T) {
	env := newTestEnv(t, 60)

	rec := env.admin(t, http.MethodGet, "/api/admin/jobs", nil)
	expectStatus(t, rec, http.StatusOK)
	var statuses []scheduler.JobStatus
	decodeData(t, rec, &statuses)
	if len(statuses) != 1 || statuses[0].Name != RollupJob {
		t.Errorf("jobs = %+v", statuses)
	}

	rec = env.admin(t, http.MethodPost, "/api/admin/jobs/rollup/run", nil)
	expectStatus(t, rec, http.StatusAccepted)
	if len(env.jobs.triggers) != 1 || env.jobs.triggers[0] != RollupJob {
		t.Errorf("triggers = %v", env.jobs.triggers)
	}

	env.jobs.err = scheduler.ErrJobRunning
	rec = env.admin(t, http.MethodPost, "/api/admin/jobs/rollup/run", nil)
	expectStatus(t, rec, http.StatusConflict)
	if errorCode(t, rec) != "JOB_RUNNING" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAdminHandler_RollupDisabled(t *testing.T) {
	t.Parallel()
	h := NewAdminHandler(nil, nil, nil, nil, discardLogger())

	rec := newRecorderFor(h.TriggerRollup, http.MethodPost)
	if rec.Code != http.StatusNotFound {
		t.Errorf("trigger status = %d, want 404", rec.Code)
	}

	rec = newRecorderFor(h.Jobs, http.MethodGet)
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"data\":[]}\n" {
		t.Errorf("jobs = %d %q", rec.Code, rec.Body.String())
	}

	rec = newRecorderFor(h.FlushCache, http.MethodPost)
	var resp struct {
		Data dto.FlushResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Data.Flushed {
		t.Errorf("flush without cache = %s", rec.Body.String())
	}
}

func TestAdmin_RealSchedulerTrigger(t *testing.T) {
	sched := scheduler.New(discardLogger())
	ran := make(chan struct{}, 1)
	if err := sched.Add(RollupJob, "0 2 * * *", time.Second, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	t.Cleanup(func() { _ = sched.Stop(context.Background()) })

	h := NewAdminHandler(nil, nil, sched, nil, discardLogger())
	rec := newRecorderFor(h.TriggerRollup, http.MethodPost)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("rollup job did not run")
	}
}
