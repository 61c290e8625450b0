// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
	"unicode"
)

// MovieType distinguishes single titles from episodic ones.
type MovieType string

const (
	TypeMovie  MovieType = "movie"
	TypeSeries MovieType = "series"
)

// IsValid reports whether t is a known catalog type.
func (t MovieType) IsValid() bool {
	return t == TypeMovie || t == TypeSeries
}

// Movie is a catalog entry (movie or series) with an outbound watch link.
// Entries are never physically removed; deletion clears IsActive.
type Movie struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"originalTitle,omitempty"`
	Slug          string    `json:"slug"`
	Type          MovieType `json:"type"`
	Year          int       `json:"year,omitempty"`
	Genres        []string  `json:"genre"`
	Tags          []string  `json:"tags"`
	Language      string    `json:"language,omitempty"`
	Description   string    `json:"description,omitempty"`
	WatchLink     string    `json:"telegramLink"`
	PosterURL     string    `json:"posterUrl,omitempty"`
	TrailerURL    string    `json:"trailerUrl,omitempty"`
	BackdropURL   string    `json:"backdropUrl,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Seasons       int       `json:"seasons,omitempty"`
	EpisodeCount  int       `json:"episodes,omitempty"`

	// Denormalized click counter, incremented atomically by the store.
	ClickCount  int64      `json:"clickCount"`
	LastClicked *time.Time `json:"lastClicked,omitempty"`

	IsActive   bool      `json:"isActive"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MovieSort enumerates sortable listing columns.
type MovieSort string

const (
	SortCreatedAt  MovieSort = "createdAt"
	SortClickCount MovieSort = "clickCount"
	SortTitle      MovieSort = "title"
	SortYear       MovieSort = "year"
	SortRating     MovieSort = "rating"
)

// IsValid reports whether s is a supported sort column.
func (s MovieSort) IsValid() bool {
	switch s {
	case SortCreatedAt, SortClickCount, SortTitle, SortYear, SortRating:
		return true
	}
	return false
}

// MovieFilter narrows a catalog listing.
type MovieFilter struct {
	Type     MovieType
	Genre    string
	Tag      string
	Year     int
	Language string
	Search   string

	// IncludeInactive is used by admin listings only.
	IncludeInactive bool
	Featured        *bool

	Sort    MovieSort
	SortAsc bool
	Page    int
	Limit   int
}

// Normalize applies listing defaults and bounds.
func (f *MovieFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if !f.Sort.IsValid() {
		f.Sort = SortCreatedAt
	}
}

// Offset returns the row offset for the filter's page.
func (f MovieFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Slugify derives a URL slug from a title.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
