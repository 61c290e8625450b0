package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cinelink/cinelink/internal/handler/dto"
	"github.com/cinelink/cinelink/internal/middleware"
	"github.com/cinelink/cinelink/internal/scheduler"
	"github.com/cinelink/cinelink/internal/service"
)

// RollupJob is the scheduler job name for the daily rollup.
const RollupJob = "rollup"

// JobRunner exposes manual job control.
type JobRunner interface {
	Trigger(name string) error
	Status() []scheduler.JobStatus
}

// CacheFlusher drops every cached entry.
type CacheFlusher interface {
	Flush(ctx context.Context) bool
}

// AdminHandler serves catalog management and operational endpoints.
type AdminHandler struct {
	catalog  *service.CatalogService
	episodes *service.EpisodeService
	jobs     JobRunner
	cache    CacheFlusher
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. jobs may be nil when the
// rollup is disabled.
func NewAdminHandler(catalog *service.CatalogService, episodes *service.EpisodeService, jobs JobRunner, cache CacheFlusher, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		episodes: episodes,
		jobs:     jobs,
		cache:    cache,
		logger:   logger.With("component", "handler.admin"),
	}
}

// ListMovies handles GET /api/admin/movies, including inactive entries.
func (h *AdminHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMovieFilter(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.catalog.AdminList(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToListResponse(page))
}

// CreateMovie handles POST /api/admin/movies.
func (h *AdminHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req dto.MovieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	movie, err := h.catalog.Create(r.Context(), req.ToInput())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("movie_created",
		"request_id", middleware.GetRequestID(r.Context()),
		"movie_id", movie.ID,
		"slug", movie.Slug,
	)
	writeData(w, http.StatusCreated, movie)
}

// UpdateMovie handles PUT /api/admin/movies/{id}.
func (h *AdminHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	var req dto.MovieUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	movie, err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), req.ToUpdate())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, movie)
}

// DeleteMovie handles DELETE /api/admin/movies/{id}.
func (h *AdminHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFeatured handles PUT /api/admin/movies/{id}/feature.
func (h *AdminHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	featured, err := h.catalog.ToggleFeatured(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto.FeatureResponse{ID: id, IsFeatured: featured})
}

// CreateEpisode handles POST /api/admin/movies/{id}/episodes.
func (h *AdminHandler) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	var req dto.EpisodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	episode, err := h.episodes.Create(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, episode)
}

// ImportEpisodes handles POST /api/admin/movies/{id}/episodes/import.
// When the batch fails part way, the stored episodes are reported with
// 207 Multi-Status alongside the error.
func (h *AdminHandler) ImportEpisodes(w http.ResponseWriter, r *http.Request) {
	var req dto.EpisodeImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if len(req.Episodes) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "episodes must not be empty")
		return
	}

	inputs := make([]service.EpisodeInput, len(req.Episodes))
	for i, e := range req.Episodes {
		inputs[i] = e.ToInput()
	}

	stored, err := h.episodes.Import(r.Context(), chi.URLParam(r, "id"), inputs)
	if err != nil && len(stored) == 0 {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := dto.ImportResponse{Imported: len(stored), Episodes: stored}
	status := http.StatusOK
	if err != nil {
		h.logger.Warn("episode import partially applied",
			"request_id", middleware.GetRequestID(r.Context()),
			"imported", len(stored),
			"requested", len(inputs),
			"error", err,
		)
		resp.Error = err.Error()
		status = http.StatusMultiStatus
	}
	writeData(w, status, resp)
}

// UpdateEpisode handles PUT /api/admin/episodes/{id}.
func (h *AdminHandler) UpdateEpisode(w http.ResponseWriter, r *http.Request) {
	var req dto.EpisodeUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	episode, err := h.episodes.Update(r.Context(), chi.URLParam(r, "id"), req.ToUpdate())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, episode)
}

// DeleteEpisode handles DELETE /api/admin/episodes/{id}.
func (h *AdminHandler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	if err := h.episodes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FlushCache handles POST /api/admin/cache/flush.
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	flushed := h.cache != nil && h.cache.Flush(r.Context())
	h.logger.Info("cache_flush_requested",
		"request_id", middleware.GetRequestID(r.Context()),
		"flushed", flushed,
	)
	writeData(w, http.StatusOK, dto.FlushResponse{Flushed: flushed})
}

// TriggerRollup handles POST /api/admin/jobs/rollup/run.
func (h *AdminHandler) TriggerRollup(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeError(w, http.StatusNotFound, "UNKNOWN_JOB", "rollup is disabled")
		return
	}
	if err := h.jobs.Trigger(RollupJob); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusAccepted, dto.TriggerResponse{Job: RollupJob, Started: true})
}

// Jobs handles GET /api/admin/jobs.
func (h *AdminHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeData(w, http.StatusOK, []scheduler.JobStatus{})
		return
	}
	writeData(w, http.StatusOK, h.jobs.Status())
}
