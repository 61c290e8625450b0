package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/cinelink/cinelink/internal/model"
)

const episodeColumns = `
	id, movie_id, season, episode_number, title, description, duration,
	thumbnail_url, trailer_url, watch_url, is_published, click_count, created_at, updated_at`

// CreateEpisode inserts a new episode. A second episode with the same
// (movie, season, number) yields ErrDuplicate.
func (r *Repository) CreateEpisode(ctx context.Context, e *model.Episode) error {
	query := `
		INSERT INTO episodes (` + episodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.MovieID,
		e.Season,
		e.EpisodeNumber,
		e.Title,
		e.Description,
		e.Duration,
		e.ThumbnailURL,
		e.TrailerURL,
		e.WatchURL,
		e.IsPublished,
		e.ClickCount,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return wrapErr("create episode", err)
}

// UpsertEpisode inserts an episode or updates the existing one with the same
// (movie, season, number), keeping its ID and click counter. The stored row
// is written back into e.
func (r *Repository) UpsertEpisode(ctx context.Context, e *model.Episode) error {
	query := `
		INSERT INTO episodes (` + episodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $12)
		ON CONFLICT (movie_id, season, episode_number) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			duration = EXCLUDED.duration,
			thumbnail_url = EXCLUDED.thumbnail_url,
			trailer_url = EXCLUDED.trailer_url,
			watch_url = EXCLUDED.watch_url,
			is_published = EXCLUDED.is_published,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + episodeColumns

	stored, err := scanEpisode(r.pool.QueryRow(ctx, query,
		e.ID,
		e.MovieID,
		e.Season,
		e.EpisodeNumber,
		e.Title,
		e.Description,
		e.Duration,
		e.ThumbnailURL,
		e.TrailerURL,
		e.WatchURL,
		e.IsPublished,
		e.UpdatedAt,
	))
	if err != nil {
		return wrapErr("upsert episode", err)
	}
	*e = *stored
	return nil
}

// GetEpisode retrieves an episode by ID regardless of its published flag.
func (r *Repository) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = $1`

	e, err := scanEpisode(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get episode", err)
	}
	return e, nil
}

// UpdateEpisode replaces an episode's editable fields.
func (r *Repository) UpdateEpisode(ctx context.Context, e *model.Episode) error {
	query := `
		UPDATE episodes
		SET season = $2, episode_number = $3, title = $4, description = $5, duration = $6,
		    thumbnail_url = $7, trailer_url = $8, watch_url = $9, is_published = $10,
		    updated_at = $11
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		e.ID,
		e.Season,
		e.EpisodeNumber,
		e.Title,
		e.Description,
		e.Duration,
		e.ThumbnailURL,
		e.TrailerURL,
		e.WatchURL,
		e.IsPublished,
		e.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update episode", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnpublishEpisode soft-deletes an episode.
func (r *Repository) UnpublishEpisode(ctx context.Context, id string) error {
	query := `
		UPDATE episodes
		SET is_published = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_published
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return wrapErr("unpublish episode", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementEpisodeClicks atomically bumps a published episode's counter.
func (r *Repository) IncrementEpisodeClicks(ctx context.Context, id string) (int64, error) {
	query := `
		UPDATE episodes
		SET click_count = click_count + 1
		WHERE id = $1 AND is_published
		RETURNING click_count
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, wrapErr("increment episode clicks", err)
	}
	return count, nil
}

// ListEpisodes returns one page of a series' episodes ordered by season and
// number, and the total match count.
func (r *Repository) ListEpisodes(ctx context.Context, filter model.EpisodeFilter) ([]*model.Episode, int64, error) {
	filter.Normalize()

	where := ` WHERE movie_id = $1 AND ($2 = 0 OR season = $2) AND ($3 OR is_published)`
	args := []any{filter.MovieID, filter.Season, filter.IncludeUnpublished}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM episodes`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count episodes", err)
	}

	query := `SELECT ` + episodeColumns + ` FROM episodes` + where + `
		ORDER BY season, episode_number
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, wrapErr("list episodes", err)
	}
	defer rows.Close()

	episodes := make([]*model.Episode, 0)
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, 0, wrapErr("scan episode", err)
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("iterate episodes", err)
	}
	return episodes, total, nil
}

// ListSeasons returns the distinct seasons with published episodes.
func (r *Repository) ListSeasons(ctx context.Context, movieID string) ([]int, error) {
	query := `
		SELECT DISTINCT season
		FROM episodes
		WHERE movie_id = $1 AND is_published
		ORDER BY season
	`

	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, wrapErr("list seasons", err)
	}
	seasons, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, wrapErr("collect seasons", err)
	}
	return seasons, nil
}

func scanEpisode(row pgx.Row) (*model.Episode, error) {
	var e model.Episode
	err := row.Scan(
		&e.ID,
		&e.MovieID,
		&e.Season,
		&e.EpisodeNumber,
		&e.Title,
		&e.Description,
		&e.Duration,
		&e.ThumbnailURL,
		&e.TrailerURL,
		&e.WatchURL,
		&e.IsPublished,
		&e.ClickCount,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
