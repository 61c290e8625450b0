package model

import "time"

// HourlyClicks is one bucket of the hour-of-day histogram (UTC).
type HourlyClicks struct {
	Hour   int   `json:"hour"`
	Clicks int64 `json:"clicks"`
}

// DailyClicks is one bucket of the calendar-day histogram.
type DailyClicks struct {
	Date   string `json:"date"` // YYYY-MM-DD, UTC
	Clicks int64  `json:"clicks"`
}

// ReferrerCount is the click count for one referer value.
type ReferrerCount struct {
	Referer string `json:"referer"`
	Count   int64  `json:"count"`
}

// TopMovie is a trimmed catalog entry used by ranking views.
type TopMovie struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Type        MovieType  `json:"type"`
	PosterURL   string     `json:"posterUrl,omitempty"`
	ClickCount  int64      `json:"clickCount"`
	LastClicked *time.Time `json:"lastClicked,omitempty"`
}

// TopMoviesFilter parameterizes the top-by-clicks ranking.
type TopMoviesFilter struct {
	Limit int
	Type  MovieType
	// ClickedSince restricts to entries whose last click is at or after it.
	ClickedSince *time.Time
	// OrderByLastClicked ranks by recency instead of the all-time counter.
	OrderByLastClicked bool
}

// Overview is the dashboard summary for a time window.
type Overview struct {
	TotalMovies       int64         `json:"totalMovies"`
	TotalSeries       int64         `json:"totalSeries"`
	TotalClicks       int64         `json:"totalClicks"`
	ClicksInPeriod    int64         `json:"clicksInPeriod"`
	TopMoviesInPeriod []TopMovie    `json:"topMoviesThisPeriod"`
	ClicksByDay       []DailyClicks `json:"clicksByDay"`
	PeriodDays        int           `json:"periodDays"`
}

// MovieStats is the per-entry analytics view.
type MovieStats struct {
	MovieID      string          `json:"movieId"`
	Title        string          `json:"title"`
	TotalClicks  int64           `json:"totalClicks"`
	RecentClicks int64           `json:"recentClicks"`
	ClicksByDay  []DailyClicks   `json:"clicksByDay"`
	TopReferers  []ReferrerCount `json:"topReferers"`
	PeriodDays   int             `json:"periodDays"`
}

// MovieClickCount pairs a catalog entry with its clicks in a window.
type MovieClickCount struct {
	MovieID string    `json:"movieId"`
	Title   string    `json:"title"`
	Type    MovieType `json:"type"`
	Clicks  int64     `json:"clicks"`
}

// ClientDashboard is the read-only summary served to client accounts.
type ClientDashboard struct {
	TotalMovies     int64      `json:"totalMovies"`
	TotalSeries     int64      `json:"totalSeries"`
	TotalClicks     int64      `json:"totalClicks"`
	ClicksToday     int64      `json:"clicksToday"`
	ClicksThisWeek  int64      `json:"clicksThisWeek"`
	TopMovies       []TopMovie `json:"topMovies"`
	RecentlyClicked []TopMovie `json:"recentlyClicked"`
}

// MaxPage is the deepest page offset pagination serves. It keeps
// (page-1)*limit far from integer overflow.
const MaxPage = 10000

// Pagination describes an offset-paginated result.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// NewPagination computes page metadata from a total and page size.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < pages,
		HasPrev:      page > 1,
	}
}

// Page is a generic paginated result.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
