package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/cinelink/cinelink/internal/model"
)

const movieColumns = `
	id, title, original_title, slug, type, year, genres, tags, language, description,
	watch_link, poster_url, trailer_url, backdrop_url, rating, duration, seasons,
	episode_count, click_count, last_clicked, is_active, is_featured, created_at, updated_at`

// sortColumns maps listing sort keys to SQL columns.
var sortColumns = map[model.MovieSort]string{
	model.SortCreatedAt:  "created_at",
	model.SortClickCount: "click_count",
	model.SortTitle:      "title",
	model.SortYear:       "year",
	model.SortRating:     "rating",
}

// CreateMovie inserts a new catalog entry.
func (r *Repository) CreateMovie(ctx context.Context, m *model.Movie) error {
	query := `
		INSERT INTO movies (` + movieColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Title,
		m.OriginalTitle,
		m.Slug,
		m.Type,
		m.Year,
		pq.Array(m.Genres),
		pq.Array(m.Tags),
		m.Language,
		m.Description,
		m.WatchLink,
		m.PosterURL,
		m.TrailerURL,
		m.BackdropURL,
		m.Rating,
		m.Duration,
		m.Seasons,
		m.EpisodeCount,
		m.ClickCount,
		m.LastClicked,
		m.IsActive,
		m.IsFeatured,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return wrapErr("create movie", err)
}

// GetMovie retrieves a catalog entry by ID regardless of its active flag.
func (r *Repository) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`

	m, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get movie", err)
	}
	return m, nil
}

// GetMovieBySlug retrieves an active catalog entry by slug.
func (r *Repository) GetMovieBySlug(ctx context.Context, slug string) (*model.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE slug = $1 AND is_active`

	m, err := scanMovie(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, wrapErr("get movie by slug", err)
	}
	return m, nil
}

// UpdateMovie replaces a catalog entry's editable fields.
func (r *Repository) UpdateMovie(ctx context.Context, m *model.Movie) error {
	query := `
		UPDATE movies
		SET title = $2, original_title = $3, slug = $4, type = $5, year = $6, genres = $7,
		    tags = $8, language = $9, description = $10, watch_link = $11, poster_url = $12,
		    trailer_url = $13, backdrop_url = $14, rating = $15, duration = $16, seasons = $17,
		    episode_count = $18, is_active = $19, is_featured = $20, updated_at = $21
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Title,
		m.OriginalTitle,
		m.Slug,
		m.Type,
		m.Year,
		pq.Array(m.Genres),
		pq.Array(m.Tags),
		m.Language,
		m.Description,
		m.WatchLink,
		m.PosterURL,
		m.TrailerURL,
		m.BackdropURL,
		m.Rating,
		m.Duration,
		m.Seasons,
		m.EpisodeCount,
		m.IsActive,
		m.IsFeatured,
		m.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update movie", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateMovie soft-deletes a catalog entry.
func (r *Repository) DeactivateMovie(ctx context.Context, id string) error {
	query := `
		UPDATE movies
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return wrapErr("deactivate movie", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleFeatured flips the featured flag and returns the new value.
func (r *Repository) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE movies
		SET is_featured = NOT is_featured, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING is_featured
	`

	var featured bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&featured); err != nil {
		return false, wrapErr("toggle featured", err)
	}
	return featured, nil
}

// IncrementMovieClicks atomically bumps the click counter of an active entry
// and returns the new value.
func (r *Repository) IncrementMovieClicks(ctx context.Context, id string, at time.Time) (int64, error) {
	query := `
		UPDATE movies
		SET click_count = click_count + 1, last_clicked = $2
		WHERE id = $1 AND is_active
		RETURNING click_count
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query, id, at).Scan(&count); err != nil {
		return 0, wrapErr("increment movie clicks", err)
	}
	return count, nil
}

// ListMovies returns one page of catalog entries and the total match count.
func (r *Repository) ListMovies(ctx context.Context, filter model.MovieFilter) ([]*model.Movie, int64, error) {
	filter.Normalize()

	where, args := movieWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM movies` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count movies", err)
	}

	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM movies%s ORDER BY %s %s, id DESC LIMIT $%d OFFSET $%d`,
		movieColumns, where, sortColumns[filter.Sort], direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	movies, err := r.queryMovies(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapErr("list movies", err)
	}
	return movies, total, nil
}

// movieWhere builds the WHERE clause for a listing filter.
func movieWhere(filter model.MovieFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !filter.IncludeInactive {
		conds = append(conds, "is_active")
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Genre != "" {
		add("$%d = ANY(genres)", filter.Genre)
	}
	if filter.Tag != "" {
		add("$%d = ANY(tags)", filter.Tag)
	}
	if filter.Year > 0 {
		add("year = $%d", filter.Year)
	}
	if filter.Language != "" {
		add("language = $%d", filter.Language)
	}
	if filter.Featured != nil {
		add("is_featured = $%d", *filter.Featured)
	}
	if filter.Search != "" {
		add("to_tsvector('simple', title || ' ' || original_title || ' ' || description) @@ plainto_tsquery('simple', $%d)", filter.Search)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListFeatured returns active featured entries, newest first.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]*model.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE is_active AND is_featured
		ORDER BY created_at DESC
		LIMIT $1`

	movies, err := r.queryMovies(ctx, query, limit)
	if err != nil {
		return nil, wrapErr("list featured movies", err)
	}
	return movies, nil
}

// ListPopular returns active entries ranked by their click counter.
func (r *Repository) ListPopular(ctx context.Context, limit int, typ model.MovieType) ([]*model.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies
		WHERE is_active AND ($2 = '' OR type = $2)
		ORDER BY click_count DESC, id DESC
		LIMIT $1`

	movies, err := r.queryMovies(ctx, query, limit, string(typ))
	if err != nil {
		return nil, wrapErr("list popular movies", err)
	}
	return movies, nil
}

// DistinctGenres returns the sorted set of genres of active entries.
func (r *Repository) DistinctGenres(ctx context.Context) ([]string, error) {
	return r.distinctArrayValues(ctx, "genres")
}

// DistinctTags returns the sorted set of tags of active entries.
func (r *Repository) DistinctTags(ctx context.Context) ([]string, error) {
	return r.distinctArrayValues(ctx, "tags")
}

func (r *Repository) distinctArrayValues(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT v
		FROM movies, unnest(%s) AS v
		WHERE is_active AND v <> ''
		ORDER BY v`, column)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("query distinct "+column, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr("collect distinct "+column, err)
	}
	return values, nil
}

// CountActiveByType returns the number of active movies and series.
func (r *Repository) CountActiveByType(ctx context.Context) (movies, series int64, err error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE type = 'movie'),
			COUNT(*) FILTER (WHERE type = 'series')
		FROM movies
		WHERE is_active
	`
	if err := r.pool.QueryRow(ctx, query).Scan(&movies, &series); err != nil {
		return 0, 0, wrapErr("count movies by type", err)
	}
	return movies, series, nil
}

// SumActiveClicks returns the sum of click counters across active entries.
func (r *Repository) SumActiveClicks(ctx context.Context) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(click_count), 0) FROM movies WHERE is_active`
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, wrapErr("sum clicks", err)
	}
	return total, nil
}

// TopMovies ranks active entries by their all-time counter, or by recency.
func (r *Repository) TopMovies(ctx context.Context, filter model.TopMoviesFilter) ([]model.TopMovie, error) {
	order := "click_count DESC, id DESC"
	if filter.OrderByLastClicked {
		order = "last_clicked DESC NULLS LAST, id DESC"
	}

	query := `
		SELECT id, title, slug, type, poster_url, click_count, last_clicked
		FROM movies
		WHERE is_active
		  AND ($2 = '' OR type = $2)
		  AND ($3::timestamptz IS NULL OR last_clicked >= $3)
		ORDER BY ` + order + `
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, filter.Limit, string(filter.Type), filter.ClickedSince)
	if err != nil {
		return nil, wrapErr("query top movies", err)
	}
	defer rows.Close()

	top := make([]model.TopMovie, 0, filter.Limit)
	for rows.Next() {
		var m model.TopMovie
		if err := rows.Scan(&m.ID, &m.Title, &m.Slug, &m.Type, &m.PosterURL, &m.ClickCount, &m.LastClicked); err != nil {
			return nil, wrapErr("scan top movie", err)
		}
		top = append(top, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate top movies", err)
	}
	return top, nil
}

func (r *Repository) queryMovies(ctx context.Context, query string, args ...any) ([]*model.Movie, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]*model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// scanMovie scans a row selected with movieColumns.
func scanMovie(row pgx.Row) (*model.Movie, error) {
	var m model.Movie
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.OriginalTitle,
		&m.Slug,
		&m.Type,
		&m.Year,
		pq.Array(&m.Genres),
		pq.Array(&m.Tags),
		&m.Language,
		&m.Description,
		&m.WatchLink,
		&m.PosterURL,
		&m.TrailerURL,
		&m.BackdropURL,
		&m.Rating,
		&m.Duration,
		&m.Seasons,
		&m.EpisodeCount,
		&m.ClickCount,
		&m.LastClicked,
		&m.IsActive,
		&m.IsFeatured,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
