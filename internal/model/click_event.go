package model

import "time"

// ClickEvent is an immutable record of one click-through.
// Duplicates are expected; events are pruned after the retention horizon.
type ClickEvent struct {
	ID string `json:"id"` // ULID (time-sortable)

	// MovieID is the catalog entry, or the parent series for episode clicks.
	MovieID   string `json:"movieId"`
	EpisodeID string `json:"episodeId,omitempty"`

	// Request metadata
	UserAgent string `json:"userAgent,omitempty"` // truncated to 500 chars
	IPAddress string `json:"ipAddress,omitempty"`
	Referer   string `json:"referer,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// RequestInfo carries the caller metadata attached to a recorded click.
type RequestInfo struct {
	UserAgent string
	IPAddress string
	Referer   string
	Country   string
	City      string
}

// DailyMovieSummary is the per-movie rollup for one UTC day.
type DailyMovieSummary struct {
	MovieID   string    `json:"movieId"`
	Date      time.Time `json:"date"` // UTC, time component zeroed
	Clicks    int64     `json:"clicks"`
	UniqueIPs int64     `json:"uniqueIps"`
}
