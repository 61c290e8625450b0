package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinelink/cinelink/internal/analytics"
	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/metrics"
	"github.com/cinelink/cinelink/internal/model"
)

// Click kinds reported to metrics.
const (
	ClickKindMovie   = "movie"
	ClickKindEpisode = "episode"
)

// ClickResult is what a caller needs to send the user on their way.
type ClickResult struct {
	MovieID    string `json:"movieId"`
	EpisodeID  string `json:"episodeId,omitempty"`
	Target     string `json:"target"`
	ClickCount int64  `json:"clickCount"`
}

// ClickRecorder counts click-throughs on catalog entries and episodes.
//
// The counter increment is the only step that can fail a click. The event
// log write, the parent counter bump for episodes and cache invalidation
// are best-effort.
type ClickRecorder struct {
	movies      CatalogStore
	episodes    EpisodeStore
	events      ClickLog
	invalidator *cache.Invalidator
	logger      *slog.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewClickRecorder creates a new ClickRecorder.
func NewClickRecorder(
	movies CatalogStore,
	episodes EpisodeStore,
	events ClickLog,
	invalidator *cache.Invalidator,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *ClickRecorder {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ClickRecorder{
		movies:      movies,
		episodes:    episodes,
		events:      events,
		invalidator: invalidator,
		logger:      logger.With("component", "service.click"),
		metrics:     recorder,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecordMovieClick counts a click on an active catalog entry and returns its
// watch link.
func (r *ClickRecorder) RecordMovieClick(ctx context.Context, movieID string, info model.RequestInfo) (*ClickResult, error) {
	movie, err := r.movies.GetMovie(ctx, movieID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !movie.IsActive {
		return nil, ErrNotFound
	}

	now := r.now()
	count, err := r.movies.IncrementMovieClicks(ctx, movieID, now)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	r.logEvent(ctx, movieID, "", info, now)
	r.invalidator.MovieClicked(ctx)
	r.metrics.IncClickRecorded(ClickKindMovie)

	return &ClickResult{
		MovieID:    movieID,
		Target:     movie.WatchLink,
		ClickCount: count,
	}, nil
}

// RecordEpisodeClick counts a click on a published episode, bumps the parent
// series counter and returns the episode's watch URL.
func (r *ClickRecorder) RecordEpisodeClick(ctx context.Context, episodeID string, info model.RequestInfo) (*ClickResult, error) {
	episode, err := r.episodes.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !episode.IsPublished {
		return nil, ErrNotFound
	}

	now := r.now()
	count, err := r.episodes.IncrementEpisodeClicks(ctx, episodeID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	// The parent counter may drift from the sum of its episodes when this
	// fails; that is accepted.
	if _, err := r.movies.IncrementMovieClicks(ctx, episode.MovieID, now); err != nil {
		r.logger.Warn("failed to increment parent clicks",
			"episode_id", episodeID,
			"movie_id", episode.MovieID,
			"error", err,
		)
	}

	r.logEvent(ctx, episode.MovieID, episodeID, info, now)
	r.invalidator.EpisodeClicked(ctx, episode.MovieID)
	r.metrics.IncClickRecorded(ClickKindEpisode)

	return &ClickResult{
		MovieID:    episode.MovieID,
		EpisodeID:  episodeID,
		Target:     episode.WatchURL,
		ClickCount: count,
	}, nil
}

// logEvent appends the click to the event log. Failures are logged and
// counted but never returned.
func (r *ClickRecorder) logEvent(ctx context.Context, movieID, episodeID string, info model.RequestInfo, at time.Time) {
	info = analytics.NormalizeRequest(info)
	event := &model.ClickEvent{
		ID:        newID(),
		MovieID:   movieID,
		EpisodeID: episodeID,
		UserAgent: info.UserAgent,
		IPAddress: info.IPAddress,
		Referer:   info.Referer,
		Country:   info.Country,
		City:      info.City,
		Timestamp: at,
	}

	err := analytics.ValidateClickEvent(event)
	if err == nil {
		err = r.events.Insert(ctx, event)
	}
	if err != nil {
		r.metrics.IncClickEventDropped()
		r.logger.Warn("failed to persist click event",
			"movie_id", movieID,
			"episode_id", episodeID,
			"error", err,
		)
	}
}
