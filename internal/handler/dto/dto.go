// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/service"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DataResponse is the envelope for single-object responses.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse is the envelope for paginated responses.
type ListResponse[T any] struct {
	Data       []T              `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

// ToListResponse converts a model page to its response envelope.
func ToListResponse[T any](page *model.Page[T]) ListResponse[T] {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Pagination: page.Pagination}
}

// MovieRequest represents the request body for creating a catalog entry.
type MovieRequest struct {
	Title         string          `json:"title"`
	OriginalTitle string          `json:"originalTitle,omitempty"`
	Slug          string          `json:"slug,omitempty"`
	Type          model.MovieType `json:"type,omitempty"`
	Year          int             `json:"year,omitempty"`
	Genres        []string        `json:"genre,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Language      string          `json:"language,omitempty"`
	Description   string          `json:"description,omitempty"`
	TelegramLink  string          `json:"telegramLink"`
	PosterURL     string          `json:"posterUrl,omitempty"`
	TrailerURL    string          `json:"trailerUrl,omitempty"`
	BackdropURL   string          `json:"backdropUrl,omitempty"`
	Rating        float64         `json:"rating,omitempty"`
	Duration      string          `json:"duration,omitempty"`
	Seasons       int             `json:"seasons,omitempty"`
	Episodes      int             `json:"episodes,omitempty"`
	IsFeatured    bool            `json:"isFeatured,omitempty"`
}

// ToInput converts the request to a service input.
func (r MovieRequest) ToInput() service.MovieInput {
	return service.MovieInput{
		Title:         r.Title,
		OriginalTitle: r.OriginalTitle,
		Slug:          r.Slug,
		Type:          r.Type,
		Year:          r.Year,
		Genres:        r.Genres,
		Tags:          r.Tags,
		Language:      r.Language,
		Description:   r.Description,
		WatchLink:     r.TelegramLink,
		PosterURL:     r.PosterURL,
		TrailerURL:    r.TrailerURL,
		BackdropURL:   r.BackdropURL,
		Rating:        r.Rating,
		Duration:      r.Duration,
		Seasons:       r.Seasons,
		EpisodeCount:  r.Episodes,
		IsFeatured:    r.IsFeatured,
	}
}

// MovieUpdateRequest represents the request body for updating a catalog entry.
// Absent fields are left unchanged.
type MovieUpdateRequest struct {
	Title         *string          `json:"title,omitempty"`
	OriginalTitle *string          `json:"originalTitle,omitempty"`
	Type          *model.MovieType `json:"type,omitempty"`
	Year          *int             `json:"year,omitempty"`
	Genres        *[]string        `json:"genre,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
	Language      *string          `json:"language,omitempty"`
	Description   *string          `json:"description,omitempty"`
	TelegramLink  *string          `json:"telegramLink,omitempty"`
	PosterURL     *string          `json:"posterUrl,omitempty"`
	TrailerURL    *string          `json:"trailerUrl,omitempty"`
	BackdropURL   *string          `json:"backdropUrl,omitempty"`
	Rating        *float64         `json:"rating,omitempty"`
	Duration      *string          `json:"duration,omitempty"`
	Seasons       *int             `json:"seasons,omitempty"`
	Episodes      *int             `json:"episodes,omitempty"`
	IsActive      *bool            `json:"isActive,omitempty"`
	IsFeatured    *bool            `json:"isFeatured,omitempty"`
}

// ToUpdate converts the request to a service update.
func (r MovieUpdateRequest) ToUpdate() service.MovieUpdate {
	return service.MovieUpdate{
		Title:         r.Title,
		OriginalTitle: r.OriginalTitle,
		Type:          r.Type,
		Year:          r.Year,
		Genres:        r.Genres,
		Tags:          r.Tags,
		Language:      r.Language,
		Description:   r.Description,
		WatchLink:     r.TelegramLink,
		PosterURL:     r.PosterURL,
		TrailerURL:    r.TrailerURL,
		BackdropURL:   r.BackdropURL,
		Rating:        r.Rating,
		Duration:      r.Duration,
		Seasons:       r.Seasons,
		EpisodeCount:  r.Episodes,
		IsActive:      r.IsActive,
		IsFeatured:    r.IsFeatured,
	}
}

// EpisodeRequest represents the request body for creating an episode.
type EpisodeRequest struct {
	Season        int    `json:"season,omitempty"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Duration      string `json:"duration,omitempty"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`
	TrailerURL    string `json:"trailerUrl,omitempty"`
	WatchURL      string `json:"watchUrl"`
	IsPublished   *bool  `json:"isPublished,omitempty"`
}

// ToInput converts the request to a service input. Episodes are published
// unless isPublished is explicitly false.
func (r EpisodeRequest) ToInput() service.EpisodeInput {
	return service.EpisodeInput{
		Season:        r.Season,
		EpisodeNumber: r.EpisodeNumber,
		Title:         r.Title,
		Description:   r.Description,
		Duration:      r.Duration,
		ThumbnailURL:  r.ThumbnailURL,
		TrailerURL:    r.TrailerURL,
		WatchURL:      r.WatchURL,
		Unpublished:   r.IsPublished != nil && !*r.IsPublished,
	}
}

// EpisodeImportRequest is a bulk upsert of episodes for one series.
type EpisodeImportRequest struct {
	Episodes []EpisodeRequest `json:"episodes"`
}

// ImportResponse reports the outcome of a bulk upsert.
type ImportResponse struct {
	Imported int              `json:"imported"`
	Episodes []*model.Episode `json:"episodes"`
	Error    string           `json:"error,omitempty"`
}

// EpisodeUpdateRequest represents the request body for updating an episode.
type EpisodeUpdateRequest struct {
	Season        *int    `json:"season,omitempty"`
	EpisodeNumber *int    `json:"episodeNumber,omitempty"`
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Duration      *string `json:"duration,omitempty"`
	ThumbnailURL  *string `json:"thumbnailUrl,omitempty"`
	TrailerURL    *string `json:"trailerUrl,omitempty"`
	WatchURL      *string `json:"watchUrl,omitempty"`
	IsPublished   *bool   `json:"isPublished,omitempty"`
}

// ToUpdate converts the request to a service update.
func (r EpisodeUpdateRequest) ToUpdate() service.EpisodeUpdate {
	return service.EpisodeUpdate{
		Season:        r.Season,
		EpisodeNumber: r.EpisodeNumber,
		Title:         r.Title,
		Description:   r.Description,
		Duration:      r.Duration,
		ThumbnailURL:  r.ThumbnailURL,
		TrailerURL:    r.TrailerURL,
		WatchURL:      r.WatchURL,
		IsPublished:   r.IsPublished,
	}
}

// ClickResponse tells the client where to send the user after a click.
type ClickResponse struct {
	MovieID      string `json:"movieId"`
	EpisodeID    string `json:"episodeId,omitempty"`
	TelegramLink string `json:"telegramLink,omitempty"`
	WatchURL     string `json:"watchUrl,omitempty"`
	ClickCount   int64  `json:"clickCount"`
}

// ToClickResponse converts a recorded click.
func ToClickResponse(res *service.ClickResult) ClickResponse {
	resp := ClickResponse{
		MovieID:    res.MovieID,
		EpisodeID:  res.EpisodeID,
		ClickCount: res.ClickCount,
	}
	if res.EpisodeID != "" {
		resp.WatchURL = res.Target
	} else {
		resp.TelegramLink = res.Target
	}
	return resp
}

// FeatureResponse reports a featured-flag toggle.
type FeatureResponse struct {
	ID         string `json:"id"`
	IsFeatured bool   `json:"isFeatured"`
}

// FlushResponse reports a cache flush.
type FlushResponse struct {
	Flushed bool `json:"flushed"`
}

// TriggerResponse acknowledges a manually started job.
type TriggerResponse struct {
	Job     string `json:"job"`
	Started bool   `json:"started"`
}
