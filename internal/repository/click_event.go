package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cinelink/cinelink/internal/model"
)

// ClickEventRepository provides database access for the click event log and
// its aggregations.
type ClickEventRepository struct {
	repo *Repository
}

// NewClickEventRepository creates a new ClickEventRepository.
func NewClickEventRepository(repo *Repository) *ClickEventRepository {
	return &ClickEventRepository{repo: repo}
}

// Insert appends one click event.
func (r *ClickEventRepository) Insert(ctx context.Context, event *model.ClickEvent) error {
	query := `
		INSERT INTO click_events (
			id, movie_id, episode_id, user_agent, ip_address, referer, country, city, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.repo.pool.Exec(ctx, query,
		event.ID,
		event.MovieID,
		nullableString(event.EpisodeID),
		event.UserAgent,
		event.IPAddress,
		nullableString(event.Referer),
		nullableString(event.Country),
		nullableString(event.City),
		event.Timestamp,
	)
	return wrapErr("insert click event", err)
}

// CountSince counts events at or after since, optionally for one movie.
func (r *ClickEventRepository) CountSince(ctx context.Context, since time.Time, movieID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM click_events
		WHERE timestamp >= $1 AND ($2 = '' OR movie_id = $2)
	`

	var count int64
	if err := r.repo.pool.QueryRow(ctx, query, since, movieID).Scan(&count); err != nil {
		return 0, wrapErr("count click events", err)
	}
	return count, nil
}

// HourlyHistogram groups events since the given time by UTC hour of day.
func (r *ClickEventRepository) HourlyHistogram(ctx context.Context, since time.Time) ([]model.HourlyClicks, error) {
	query := `
		SELECT EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour, COUNT(*)
		FROM click_events
		WHERE timestamp >= $1
		GROUP BY hour
		ORDER BY hour
	`

	rows, err := r.repo.pool.Query(ctx, query, since)
	if err != nil {
		return nil, wrapErr("query hourly clicks", err)
	}
	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.HourlyClicks, error) {
		var b model.HourlyClicks
		err := row.Scan(&b.Hour, &b.Clicks)
		return b, err
	})
	if err != nil {
		return nil, wrapErr("collect hourly clicks", err)
	}
	return buckets, nil
}

// DailyHistogram groups events since the given time by UTC calendar day,
// optionally for one movie.
func (r *ClickEventRepository) DailyHistogram(ctx context.Context, since time.Time, movieID string) ([]model.DailyClicks, error) {
	query := `
		SELECT to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM click_events
		WHERE timestamp >= $1 AND ($2 = '' OR movie_id = $2)
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.repo.pool.Query(ctx, query, since, movieID)
	if err != nil {
		return nil, wrapErr("query daily clicks", err)
	}
	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DailyClicks, error) {
		var b model.DailyClicks
		err := row.Scan(&b.Date, &b.Clicks)
		return b, err
	})
	if err != nil {
		return nil, wrapErr("collect daily clicks", err)
	}
	return buckets, nil
}

// TopReferrers returns the most frequent non-empty referers for a movie.
// An empty movieID ranks referers across all movies.
func (r *ClickEventRepository) TopReferrers(ctx context.Context, movieID string, since time.Time, limit int) ([]model.ReferrerCount, error) {
	query := `
		SELECT referer, COUNT(*) AS count
		FROM click_events
		WHERE ($1 = '' OR movie_id = $1) AND timestamp >= $2 AND referer IS NOT NULL AND referer <> ''
		GROUP BY referer
		ORDER BY count DESC, referer
		LIMIT $3
	`

	rows, err := r.repo.pool.Query(ctx, query, movieID, since, limit)
	if err != nil {
		return nil, wrapErr("query top referrers", err)
	}
	referrers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ReferrerCount, error) {
		var rc model.ReferrerCount
		err := row.Scan(&rc.Referer, &rc.Count)
		return rc, err
	})
	if err != nil {
		return nil, wrapErr("collect top referrers", err)
	}
	return referrers, nil
}

// ClicksByMovie ranks active movies by their event count since the given
// time and returns one page plus the number of movies with any click.
func (r *ClickEventRepository) ClicksByMovie(ctx context.Context, since time.Time, limit, offset int) ([]model.MovieClickCount, int64, error) {
	var total int64
	countQuery := `
		SELECT COUNT(DISTINCT c.movie_id)
		FROM click_events c
		JOIN movies m ON m.id = c.movie_id AND m.is_active
		WHERE c.timestamp >= $1
	`
	if err := r.repo.pool.QueryRow(ctx, countQuery, since).Scan(&total); err != nil {
		return nil, 0, wrapErr("count clicked movies", err)
	}

	query := `
		SELECT m.id, m.title, m.type, COUNT(*) AS clicks
		FROM click_events c
		JOIN movies m ON m.id = c.movie_id AND m.is_active
		WHERE c.timestamp >= $1
		GROUP BY m.id, m.title, m.type
		ORDER BY clicks DESC, m.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.repo.pool.Query(ctx, query, since, limit, offset)
	if err != nil {
		return nil, 0, wrapErr("query clicks by movie", err)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MovieClickCount, error) {
		var mc model.MovieClickCount
		err := row.Scan(&mc.MovieID, &mc.Title, &mc.Type, &mc.Clicks)
		return mc, err
	})
	if err != nil {
		return nil, 0, wrapErr("collect clicks by movie", err)
	}
	return counts, total, nil
}

// ListByMovie returns one page of a movie's events, newest first.
func (r *ClickEventRepository) ListByMovie(ctx context.Context, movieID string, limit, offset int) ([]*model.ClickEvent, int64, error) {
	var total int64
	if err := r.repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM click_events WHERE movie_id = $1`, movieID).Scan(&total); err != nil {
		return nil, 0, wrapErr("count movie clicks", err)
	}

	query := `
		SELECT id, movie_id, COALESCE(episode_id, ''), user_agent, ip_address,
		       COALESCE(referer, ''), COALESCE(country, ''), COALESCE(city, ''), timestamp
		FROM click_events
		WHERE movie_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.repo.pool.Query(ctx, query, movieID, limit, offset)
	if err != nil {
		return nil, 0, wrapErr("list movie clicks", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.ClickEvent, error) {
		var e model.ClickEvent
		err := row.Scan(&e.ID, &e.MovieID, &e.EpisodeID, &e.UserAgent, &e.IPAddress,
			&e.Referer, &e.Country, &e.City, &e.Timestamp)
		return &e, err
	})
	if err != nil {
		return nil, 0, wrapErr("collect movie clicks", err)
	}
	return events, total, nil
}

// DeleteBefore removes events strictly older than cutoff and returns the
// number deleted.
func (r *ClickEventRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.repo.pool.Exec(ctx, `DELETE FROM click_events WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, wrapErr("delete click events", err)
	}
	return result.RowsAffected(), nil
}

// EventsBetween returns the movie and IP of every event in [from, to).
func (r *ClickEventRepository) EventsBetween(ctx context.Context, from, to time.Time) ([]*model.ClickEvent, error) {
	query := `
		SELECT movie_id, ip_address, timestamp
		FROM click_events
		WHERE timestamp >= $1 AND timestamp < $2
	`

	rows, err := r.repo.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, wrapErr("query click events", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.ClickEvent, error) {
		var e model.ClickEvent
		err := row.Scan(&e.MovieID, &e.IPAddress, &e.Timestamp)
		return &e, err
	})
	if err != nil {
		return nil, wrapErr("collect click events", err)
	}
	return events, nil
}

// UpsertDailySummaries stores per-movie daily rollups, replacing earlier
// runs for the same day.
func (r *ClickEventRepository) UpsertDailySummaries(ctx context.Context, summaries []model.DailyMovieSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	query := `
		INSERT INTO daily_movie_stats (movie_id, date, clicks, unique_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (movie_id, date) DO UPDATE SET
			clicks = EXCLUDED.clicks,
			unique_ips = EXCLUDED.unique_ips,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, s := range summaries {
		batch.Queue(query, s.MovieID, s.Date, s.Clicks, s.UniqueIPs)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range summaries {
		if _, err := results.Exec(); err != nil {
			return wrapErr("upsert daily summary "+summaries[i].MovieID, err)
		}
	}
	return nil
}
