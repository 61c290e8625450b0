package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/repository"
	"github.com/cinelink/cinelink/internal/testutil"
)

func seedEpisode(t *testing.T, env *testEnv, movieID string, season, number int) *model.Episode {
	t.Helper()
	e := testutil.NewTestEpisode(t, movieID, season, number)
	if err := env.store.CreateEpisode(context.Background(), e); err != nil {
		t.Fatalf("CreateEpisode() error = %v", err)
	}
	return e
}

func TestClickRecorder_RecordMovieClick(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := seedMovie(t, env, "Arrival", nil)

	result, err := env.clicks.RecordMovieClick(ctx, m.ID, model.RequestInfo{
		UserAgent: "Mozilla/5.0",
		IPAddress: "203.0.113.7",
		Referer:   "https://t.me/cinelink/42?utm_source=x#top",
		Country:   "de",
	})
	if err != nil {
		t.Fatalf("RecordMovieClick() error = %v", err)
	}
	if result.Target != m.WatchLink || result.ClickCount != 1 {
		t.Errorf("result = %+v", result)
	}

	events := env.store.Events()
	if len(events) != 1 {
		t.Fatalf("stored %d events, want 1", len(events))
	}
	event := events[0]
	if event.MovieID != m.ID || event.EpisodeID != "" {
		t.Errorf("event refs = %q/%q", event.MovieID, event.EpisodeID)
	}
	if event.Referer != "https://t.me/cinelink/42" {
		t.Errorf("Referer = %q, want query and fragment stripped", event.Referer)
	}
	if event.Country != "DE" {
		t.Errorf("Country = %q, want DE", event.Country)
	}

	stored, _ := env.store.GetMovie(ctx, m.ID)
	if stored.LastClicked == nil {
		t.Error("LastClicked not set")
	}
	if got := env.metrics.Snapshot().ClicksRecorded[ClickKindMovie]; got != 1 {
		t.Errorf("ClicksRecorded = %d, want 1", got)
	}
}

func TestClickRecorder_NotClickable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inactive := seedMovie(t, env, "Gone", func(m *model.Movie) { m.IsActive = false })
	series := seedMovie(t, env, "Show", func(m *model.Movie) { m.Type = model.TypeSeries })
	hidden := seedEpisode(t, env, series.ID, 1, 1)
	if err := env.store.UnpublishEpisode(ctx, hidden.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := env.clicks.RecordMovieClick(ctx, inactive.ID, model.RequestInfo{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("inactive movie error = %v, want ErrNotFound", err)
	}
	if _, err := env.clicks.RecordMovieClick(ctx, "missing", model.RequestInfo{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing movie error = %v, want ErrNotFound", err)
	}
	if _, err := env.clicks.RecordEpisodeClick(ctx, hidden.ID, model.RequestInfo{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unpublished episode error = %v, want ErrNotFound", err)
	}

	if n := len(env.store.Events()); n != 0 {
		t.Errorf("stored %d events for rejected clicks", n)
	}
	if calls := env.store.Calls("IncrementMovieClicks"); calls != 0 {
		t.Errorf("IncrementMovieClicks called %d times", calls)
	}
}

func TestClickRecorder_EventFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := seedMovie(t, env, "Arrival", nil)
	env.store.Fail("Insert", errors.New("disk full"))

	result, err := env.clicks.RecordMovieClick(ctx, m.ID, model.RequestInfo{})
	if err != nil {
		t.Fatalf("RecordMovieClick() error = %v, want success", err)
	}
	if result.Target != m.WatchLink || result.ClickCount != 1 {
		t.Errorf("result = %+v", result)
	}
	if dropped := env.metrics.Snapshot().ClickEventsDropped; dropped != 1 {
		t.Errorf("ClickEventsDropped = %d, want 1", dropped)
	}
}

func TestClickRecorder_IncrementFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := seedMovie(t, env, "Arrival", nil)
	env.store.Fail("IncrementMovieClicks", repository.ErrUnavailable)

	_, err := env.clicks.RecordMovieClick(ctx, m.ID, model.RequestInfo{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("RecordMovieClick() error = %v, want ErrStoreUnavailable", err)
	}
	if calls := env.store.Calls("Insert"); calls != 0 {
		t.Errorf("event inserted %d times for a failed click", calls)
	}
}

func TestClickRecorder_ConcurrentClicks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := seedMovie(t, env, "Arrival", func(m *model.Movie) { m.ClickCount = 10 })

	const clicks = 64
	var wg sync.WaitGroup
	errs := make(chan error, clicks)
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.clicks.RecordMovieClick(ctx, m.ID, model.RequestInfo{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("RecordMovieClick() error = %v", err)
	}

	stored, _ := env.store.GetMovie(ctx, m.ID)
	if stored.ClickCount != 10+clicks {
		t.Errorf("ClickCount = %d, want %d", stored.ClickCount, 10+clicks)
	}
	if n := len(env.store.Events()); n != clicks {
		t.Errorf("stored %d events, want %d", n, clicks)
	}
}

func TestClickRecorder_RecordEpisodeClick(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	series := seedMovie(t, env, "Show", func(m *model.Movie) {
		m.Type = model.TypeSeries
		m.ClickCount = 3
	})
	other := seedMovie(t, env, "Other", func(m *model.Movie) { m.Type = model.TypeSeries })
	episode := seedEpisode(t, env, series.ID, 1, 2)
	seedEpisode(t, env, other.ID, 1, 1)

	for _, id := range []string{series.ID, other.ID} {
		if _, err := env.episodes.ListByMovie(ctx, model.EpisodeFilter{MovieID: id}); err != nil {
			t.Fatalf("ListByMovie() error = %v", err)
		}
	}
	env.cache.WaitWrites()

	result, err := env.clicks.RecordEpisodeClick(ctx, episode.ID, model.RequestInfo{IPAddress: "203.0.113.9"})
	if err != nil {
		t.Fatalf("RecordEpisodeClick() error = %v", err)
	}
	if result.Target != episode.WatchURL || result.ClickCount != 1 || result.MovieID != series.ID {
		t.Errorf("result = %+v", result)
	}

	parent, _ := env.store.GetMovie(ctx, series.ID)
	if parent.ClickCount != 4 {
		t.Errorf("parent ClickCount = %d, want 4", parent.ClickCount)
	}

	events := env.store.Events()
	if len(events) != 1 || events[0].MovieID != series.ID || events[0].EpisodeID != episode.ID {
		t.Errorf("events = %+v", events)
	}

	otherKey := cache.Key(cache.FamilyEpisodes, cache.Params{"movieId": other.ID, "page": 1, "limit": 50})
	seriesKey := cache.Key(cache.FamilyEpisodes, cache.Params{"movieId": series.ID, "page": 1, "limit": 50})
	if env.redis.Exists(seriesKey) {
		t.Errorf("%q survived the episode click", seriesKey)
	}
	if !env.redis.Exists(otherKey) {
		t.Errorf("%q belongs to another series and must stay cached", otherKey)
	}
}

func TestClickRecorder_ParentIncrementFailureIsTolerated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	series := seedMovie(t, env, "Show", func(m *model.Movie) { m.Type = model.TypeSeries })
	episode := seedEpisode(t, env, series.ID, 1, 1)
	env.store.Fail("IncrementMovieClicks", errors.New("timeout"))

	result, err := env.clicks.RecordEpisodeClick(ctx, episode.ID, model.RequestInfo{})
	if err != nil {
		t.Fatalf("RecordEpisodeClick() error = %v", err)
	}
	if result.ClickCount != 1 {
		t.Errorf("episode ClickCount = %d, want 1", result.ClickCount)
	}

	parent, _ := env.store.GetMovie(ctx, series.ID)
	if parent.ClickCount != 0 {
		t.Errorf("parent ClickCount = %d, want unchanged", parent.ClickCount)
	}
	if n := len(env.store.Events()); n != 1 {
		t.Errorf("stored %d events, want 1", n)
	}
}

func TestClickRecorder_Uncached(t *testing.T) {
	env := newUncachedEnv()
	m := seedMovie(t, env, "Arrival", nil)

	if _, err := env.clicks.RecordMovieClick(context.Background(), m.ID, model.RequestInfo{}); err != nil {
		t.Errorf("RecordMovieClick() without cache error = %v", err)
	}
}
