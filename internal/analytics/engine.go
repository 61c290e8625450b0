package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/repository"
)

// Analytics errors.
var (
	// ErrInvalidWindow is returned for a lookback outside [1, MaxWindowDays].
	ErrInvalidWindow = errors.New("invalid analytics window")
	ErrInvalidQuery  = errors.New("invalid analytics query")
	ErrNotFound      = errors.New("movie not found")
)

// Window defaults, in days.
const (
	DefaultOverviewDays = 30
	DefaultHourlyDays   = 7
	DefaultDailyDays    = 30
	DefaultStatsDays    = 30
	MaxWindowDays       = 365

	defaultTopLimit      = 10
	maxTopLimit          = 100
	defaultReferrerLimit = 10
	dashboardListLimit   = 5
	defaultPageLimit     = 20
	maxPageLimit         = 100
)

// CatalogReader reads the denormalized counters on catalog entries.
type CatalogReader interface {
	GetMovie(ctx context.Context, id string) (*model.Movie, error)
	CountActiveByType(ctx context.Context) (movies, series int64, err error)
	SumActiveClicks(ctx context.Context) (int64, error)
	TopMovies(ctx context.Context, filter model.TopMoviesFilter) ([]model.TopMovie, error)
}

// EventStore runs aggregate queries over the click event log.
type EventStore interface {
	CountSince(ctx context.Context, since time.Time, movieID string) (int64, error)
	HourlyHistogram(ctx context.Context, since time.Time) ([]model.HourlyClicks, error)
	DailyHistogram(ctx context.Context, since time.Time, movieID string) ([]model.DailyClicks, error)
	TopReferrers(ctx context.Context, movieID string, since time.Time, limit int) ([]model.ReferrerCount, error)
	ClicksByMovie(ctx context.Context, since time.Time, limit, offset int) ([]model.MovieClickCount, int64, error)
	ListByMovie(ctx context.Context, movieID string, limit, offset int) ([]*model.ClickEvent, int64, error)
}

// Engine serves cached analytics views. Every view except the top ranking
// is computed from the event log; the ranking uses the all-time counters.
type Engine struct {
	catalog CatalogReader
	events  EventStore
	cache   *cache.Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a new Engine. c may be nil.
func NewEngine(catalog CatalogReader, events EventStore, c *cache.Cache, logger *slog.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		events:  events,
		cache:   c,
		logger:  logger.With("component", "analytics.engine"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Overview returns catalog totals and click activity over the last days.
func (e *Engine) Overview(ctx context.Context, days int) (*model.Overview, error) {
	days, err := window(days, DefaultOverviewDays)
	if err != nil {
		return nil, err
	}
	key := cache.Key(cache.FamilyAnalyticsOverview, cache.Params{"days": days})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyAnalyticsOverview), func(ctx context.Context) (*model.Overview, error) {
		since := e.since(days)

		movies, series, err := e.catalog.CountActiveByType(ctx)
		if err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}
		total, err := e.catalog.SumActiveClicks(ctx)
		if err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}
		inPeriod, err := e.events.CountSince(ctx, since, "")
		if err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}
		top, err := e.catalog.TopMovies(ctx, model.TopMoviesFilter{Limit: defaultTopLimit, ClickedSince: &since})
		if err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}
		byDay, err := e.events.DailyHistogram(ctx, since, "")
		if err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}

		return &model.Overview{
			TotalMovies:       movies,
			TotalSeries:       series,
			TotalClicks:       total,
			ClicksInPeriod:    inPeriod,
			TopMoviesInPeriod: top,
			ClicksByDay:       byDay,
			PeriodDays:        days,
		}, nil
	})
}

// TopQuery parameterizes TopMovies. Days 0 ranks over all entries; otherwise
// only entries clicked within the window are ranked.
type TopQuery struct {
	Limit int
	Type  model.MovieType
	Days  int
}

// TopMovies ranks active entries by their all-time click counter.
func (e *Engine) TopMovies(ctx context.Context, q TopQuery) ([]model.TopMovie, error) {
	if q.Days != 0 {
		if _, err := window(q.Days, 0); err != nil {
			return nil, err
		}
	}
	if q.Type != "" && !q.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidQuery, q.Type)
	}
	limit := clamp(q.Limit, defaultTopLimit, maxTopLimit)

	params := cache.Params{"limit": limit, "type": q.Type}
	if q.Days != 0 {
		params["days"] = q.Days
	}
	key := cache.Key(cache.FamilyAnalyticsTopMovies, params)

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyAnalyticsTopMovies), func(ctx context.Context) ([]model.TopMovie, error) {
		filter := model.TopMoviesFilter{Limit: limit, Type: q.Type}
		if q.Days != 0 {
			since := e.since(q.Days)
			filter.ClickedSince = &since
		}
		top, err := e.catalog.TopMovies(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("top movies: %w", err)
		}
		return top, nil
	})
}

// HourlyClicks returns the hour-of-day histogram (UTC) over the last days,
// ascending by hour. Hours without clicks are omitted.
func (e *Engine) HourlyClicks(ctx context.Context, days int) ([]model.HourlyClicks, error) {
	days, err := window(days, DefaultHourlyDays)
	if err != nil {
		return nil, err
	}
	key := cache.Key(cache.FamilyAnalyticsHourlyClicks, cache.Params{"days": days})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyAnalyticsHourlyClicks), func(ctx context.Context) ([]model.HourlyClicks, error) {
		buckets, err := e.events.HourlyHistogram(ctx, e.since(days))
		if err != nil {
			return nil, fmt.Errorf("hourly clicks: %w", err)
		}
		return buckets, nil
	})
}

// DailyClicks returns the calendar-day histogram over the last days,
// ascending by date. An empty movieID aggregates all movies.
func (e *Engine) DailyClicks(ctx context.Context, movieID string, days int) ([]model.DailyClicks, error) {
	days, err := window(days, DefaultDailyDays)
	if err != nil {
		return nil, err
	}
	key := cache.Key(cache.FamilyAnalyticsDailyClicks, cache.Params{"days": days, "movieId": movieID})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyAnalyticsDailyClicks), func(ctx context.Context) ([]model.DailyClicks, error) {
		buckets, err := e.events.DailyHistogram(ctx, e.since(days), movieID)
		if err != nil {
			return nil, fmt.Errorf("daily clicks: %w", err)
		}
		return buckets, nil
	})
}

// Referrers returns the most frequent referers over the last days. An empty
// movieID ranks referers across all movies.
func (e *Engine) Referrers(ctx context.Context, movieID string, days, limit int) ([]model.ReferrerCount, error) {
	days, err := window(days, DefaultStatsDays)
	if err != nil {
		return nil, err
	}
	limit = clamp(limit, defaultReferrerLimit, maxTopLimit)
	key := cache.Key(cache.FamilyAnalyticsReferrers, cache.Params{"movieId": movieID, "days": days, "limit": limit})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyAnalyticsReferrers), func(ctx context.Context) ([]model.ReferrerCount, error) {
		referrers, err := e.events.TopReferrers(ctx, movieID, e.since(days), limit)
		if err != nil {
			return nil, fmt.Errorf("referrers: %w", err)
		}
		return referrers, nil
	})
}

// MovieStats returns the analytics view of one active entry.
func (e *Engine) MovieStats(ctx context.Context, movieID string, days int) (*model.MovieStats, error) {
	days, err := window(days, DefaultStatsDays)
	if err != nil {
		return nil, err
	}
	key := cache.Key(cache.FamilyAnalyticsMovieStats, cache.Params{"movieId": movieID, "days": days})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyAnalyticsMovieStats), func(ctx context.Context) (*model.MovieStats, error) {
		movie, err := e.catalog.GetMovie(ctx, movieID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !movie.IsActive) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("movie stats: %w", err)
		}

		since := e.since(days)
		recent, err := e.events.CountSince(ctx, since, movieID)
		if err != nil {
			return nil, fmt.Errorf("movie stats: %w", err)
		}
		byDay, err := e.events.DailyHistogram(ctx, since, movieID)
		if err != nil {
			return nil, fmt.Errorf("movie stats: %w", err)
		}
		referrers, err := e.events.TopReferrers(ctx, movieID, since, defaultReferrerLimit)
		if err != nil {
			return nil, fmt.Errorf("movie stats: %w", err)
		}

		return &model.MovieStats{
			MovieID:      movie.ID,
			Title:        movie.Title,
			TotalClicks:  movie.ClickCount,
			RecentClicks: recent,
			ClicksByDay:  byDay,
			TopReferers:  referrers,
			PeriodDays:   days,
		}, nil
	})
}

// ClientDashboard returns the read-only summary for client accounts.
func (e *Engine) ClientDashboard(ctx context.Context) (*model.ClientDashboard, error) {
	key := cache.Key(cache.FamilyClientDashboard, nil)

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyClientDashboard), func(ctx context.Context) (*model.ClientDashboard, error) {
		now := e.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		weekAgo := now.AddDate(0, 0, -7)

		movies, series, err := e.catalog.CountActiveByType(ctx)
		if err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
		total, err := e.catalog.SumActiveClicks(ctx)
		if err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
		clicksToday, err := e.events.CountSince(ctx, today, "")
		if err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
		clicksWeek, err := e.events.CountSince(ctx, weekAgo, "")
		if err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
		top, err := e.catalog.TopMovies(ctx, model.TopMoviesFilter{Limit: dashboardListLimit})
		if err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
		recent, err := e.catalog.TopMovies(ctx, model.TopMoviesFilter{
			Limit:              dashboardListLimit,
			ClickedSince:       &weekAgo,
			OrderByLastClicked: true,
		})
		if err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}

		return &model.ClientDashboard{
			TotalMovies:     movies,
			TotalSeries:     series,
			TotalClicks:     total,
			ClicksToday:     clicksToday,
			ClicksThisWeek:  clicksWeek,
			TopMovies:       top,
			RecentlyClicked: recent,
		}, nil
	})
}

// MovieAnalytics ranks active entries by event count over the last days.
func (e *Engine) MovieAnalytics(ctx context.Context, days, page, limit int) (*model.Page[model.MovieClickCount], error) {
	days, err := window(days, DefaultStatsDays)
	if err != nil {
		return nil, err
	}
	page, limit = paging(page, limit)
	key := cache.Key(cache.FamilyClientMovies, cache.Params{"days": days, "page": page, "limit": limit})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyClientMovies), func(ctx context.Context) (*model.Page[model.MovieClickCount], error) {
		counts, total, err := e.events.ClicksByMovie(ctx, e.since(days), limit, (page-1)*limit)
		if err != nil {
			return nil, fmt.Errorf("movie analytics: %w", err)
		}
		return &model.Page[model.MovieClickCount]{
			Items:      counts,
			Pagination: model.NewPagination(page, limit, total),
		}, nil
	})
}

// MovieClicks returns one page of a movie's raw click events, newest first.
func (e *Engine) MovieClicks(ctx context.Context, movieID string, page, limit int) (*model.Page[*model.ClickEvent], error) {
	page, limit = paging(page, limit)
	key := cache.Key(cache.FamilyClientMovies, cache.Params{"movieId": movieID, "page": page, "limit": limit})

	return cache.ReadThrough(ctx, e.cache, key, cache.TTL(cache.FamilyClientMovies), func(ctx context.Context) (*model.Page[*model.ClickEvent], error) {
		if _, err := e.catalog.GetMovie(ctx, movieID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("movie clicks: %w", err)
		}

		events, total, err := e.events.ListByMovie(ctx, movieID, limit, (page-1)*limit)
		if err != nil {
			return nil, fmt.Errorf("movie clicks: %w", err)
		}
		return &model.Page[*model.ClickEvent]{
			Items:      events,
			Pagination: model.NewPagination(page, limit, total),
		}, nil
	})
}

func (e *Engine) since(days int) time.Time {
	return e.now().Add(-time.Duration(days) * 24 * time.Hour)
}

// window applies def to an unset lookback and rejects out-of-range values.
func window(days, def int) (int, error) {
	if days == 0 && def > 0 {
		return def, nil
	}
	if days < 1 || days > MaxWindowDays {
		return 0, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidWindow, MaxWindowDays)
	}
	return days, nil
}

func clamp(v, def, hi int) int {
	if v <= 0 {
		return def
	}
	return min(v, hi)
}

func paging(page, limit int) (int, int) {
	return clamp(page, 1, model.MaxPage), clamp(limit, defaultPageLimit, maxPageLimit)
}
