package handler

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cinelink/cinelink/internal/handler/dto"
	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/service"
)

// Geo headers set by the edge proxy in front of the API.
const (
	countryHeader = "CF-IPCountry"
	cityHeader    = "CF-IPCity"
)

// MovieHandler serves the public catalog.
type MovieHandler struct {
	catalog  *service.CatalogService
	episodes *service.EpisodeService
	clicks   *service.ClickRecorder
	logger   *slog.Logger
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(catalog *service.CatalogService, episodes *service.EpisodeService, clicks *service.ClickRecorder, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{
		catalog:  catalog,
		episodes: episodes,
		clicks:   clicks,
		logger:   logger.With("component", "handler.movie"),
	}
}

// List handles GET /api/movies.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMovieFilter(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToListResponse(page))
}

// Featured handles GET /api/movies/featured.
func (h *MovieHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	movies, err := h.catalog.Featured(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, movies)
}

// Popular handles GET /api/movies/popular.
func (h *MovieHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	movies, err := h.catalog.Popular(r.Context(), limit, model.MovieType(r.URL.Query().Get("type")))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, movies)
}

// Genres handles GET /api/movies/genres.
func (h *MovieHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, genres)
}

// Tags handles GET /api/movies/tags.
func (h *MovieHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.Tags(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, tags)
}

// Get handles GET /api/movies/{id}.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	movie, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, movie)
}

// GetBySlug handles GET /api/movies/slug/{slug}.
func (h *MovieHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	movie, err := h.catalog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, movie)
}

// Episodes handles GET /api/movies/{id}/episodes.
func (h *MovieHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	values, err := queryInts(r, "season", "page", "limit")
	if err == nil {
		err = checkPage(values[1])
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	listing, err := h.episodes.ListByMovie(r.Context(), model.EpisodeFilter{
		MovieID: chi.URLParam(r, "id"),
		Season:  values[0],
		Page:    values[1],
		Limit:   values[2],
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, listing)
}

// Click handles POST /api/movies/{id}/click.
func (h *MovieHandler) Click(w http.ResponseWriter, r *http.Request) {
	res, err := h.clicks.RecordMovieClick(r.Context(), chi.URLParam(r, "id"), requestInfo(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("movie_clicked", "movie_id", res.MovieID, "click_count", res.ClickCount)
	writeData(w, http.StatusOK, dto.ToClickResponse(res))
}

// parseMovieFilter reads listing filters from the query string.
func parseMovieFilter(r *http.Request) (model.MovieFilter, error) {
	q := r.URL.Query()

	values, err := queryInts(r, "page", "limit", "year")
	if err != nil {
		return model.MovieFilter{}, err
	}
	if err := checkPage(values[0]); err != nil {
		return model.MovieFilter{}, err
	}
	featured, err := queryBool(r, "featured")
	if err != nil {
		return model.MovieFilter{}, err
	}

	filter := model.MovieFilter{
		Type:     model.MovieType(q.Get("type")),
		Genre:    q.Get("genre"),
		Tag:      q.Get("tag"),
		Year:     values[2],
		Language: q.Get("language"),
		Search:   strings.TrimSpace(q.Get("search")),
		Featured: featured,
		Sort:     model.MovieSort(q.Get("sortBy")),
		SortAsc:  q.Get("sortOrder") == "asc",
		Page:     values[0],
		Limit:    values[1],
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return model.MovieFilter{}, fmt.Errorf("%w: unknown type %q", errBadRequest, filter.Type)
	}
	if filter.Sort != "" && !filter.Sort.IsValid() {
		return model.MovieFilter{}, fmt.Errorf("%w: unknown sortBy %q", errBadRequest, filter.Sort)
	}
	if order := q.Get("sortOrder"); order != "" && order != "asc" && order != "desc" {
		return model.MovieFilter{}, fmt.Errorf("%w: sortOrder must be asc or desc", errBadRequest)
	}
	return filter, nil
}

// requestInfo collects the caller metadata attached to a click.
// RemoteAddr has already been rewritten from proxy headers by RealIP.
func requestInfo(r *http.Request) model.RequestInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return model.RequestInfo{
		UserAgent: r.UserAgent(),
		IPAddress: ip,
		Referer:   r.Referer(),
		Country:   r.Header.Get(countryHeader),
		City:      r.Header.Get(cityHeader),
	}
}
