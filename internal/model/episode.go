package model

import "time"

// Episode belongs to exactly one series and is unique per
// (MovieID, Season, EpisodeNumber). Deletion clears IsPublished.
type Episode struct {
	ID            string    `json:"id"`
	MovieID       string    `json:"movieId"`
	Season        int       `json:"season"`
	EpisodeNumber int       `json:"episodeNumber"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	ThumbnailURL  string    `json:"thumbnailUrl,omitempty"`
	TrailerURL    string    `json:"trailerUrl,omitempty"`
	WatchURL      string    `json:"watchUrl"`
	IsPublished   bool      `json:"isPublished"`
	ClickCount    int64     `json:"clickCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// EpisodeFilter narrows an episode listing for one series.
type EpisodeFilter struct {
	MovieID            string
	Season             int // 0 means all seasons
	IncludeUnpublished bool
	Page               int
	Limit              int
}

// Normalize applies listing defaults and bounds.
func (f *EpisodeFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

// Offset returns the row offset for the filter's page.
func (f EpisodeFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
