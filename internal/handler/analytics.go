package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cinelink/cinelink/internal/analytics"
	"github.com/cinelink/cinelink/internal/handler/dto"
	"github.com/cinelink/cinelink/internal/model"
)

// AnalyticsHandler serves the analytics and client dashboard views.
type AnalyticsHandler struct {
	engine *analytics.Engine
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(engine *analytics.Engine, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		engine: engine,
		logger: logger.With("component", "handler.analytics"),
	}
}

// Overview handles GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	overview, err := h.engine.Overview(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, overview)
}

// TopMovies handles GET /api/analytics/movies/top.
func (h *AnalyticsHandler) TopMovies(w http.ResponseWriter, r *http.Request) {
	values, err := queryInts(r, "limit", "days")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	top, err := h.engine.TopMovies(r.Context(), analytics.TopQuery{
		Limit: values[0],
		Days:  values[1],
		Type:  model.MovieType(r.URL.Query().Get("type")),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, top)
}

// Hourly handles GET /api/analytics/clicks/hourly.
func (h *AnalyticsHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	buckets, err := h.engine.HourlyClicks(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, buckets)
}

// Daily handles GET /api/analytics/clicks/daily. movieId is optional.
func (h *AnalyticsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	buckets, err := h.engine.DailyClicks(r.Context(), r.URL.Query().Get("movieId"), days)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, buckets)
}

// Referrers handles GET /api/analytics/referrers. movieId is optional.
func (h *AnalyticsHandler) Referrers(w http.ResponseWriter, r *http.Request) {
	values, err := queryInts(r, "days", "limit")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	refs, err := h.engine.Referrers(r.Context(), r.URL.Query().Get("movieId"), values[0], values[1])
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, refs)
}

// MovieStats handles GET /api/analytics/movies/{id}/stats.
func (h *AnalyticsHandler) MovieStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	stats, err := h.engine.MovieStats(r.Context(), chi.URLParam(r, "id"), days)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// Dashboard handles GET /api/client/dashboard.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.engine.ClientDashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dashboard)
}

// ClientMovies handles GET /api/client/movies/analytics.
func (h *AnalyticsHandler) ClientMovies(w http.ResponseWriter, r *http.Request) {
	values, err := queryInts(r, "days", "page", "limit")
	if err == nil {
		err = checkPage(values[1])
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.engine.MovieAnalytics(r.Context(), values[0], values[1], values[2])
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToListResponse(page))
}

// ClientMovieClicks handles GET /api/client/movies/{id}/clicks.
func (h *AnalyticsHandler) ClientMovieClicks(w http.ResponseWriter, r *http.Request) {
	values, err := queryInts(r, "page", "limit")
	if err == nil {
		err = checkPage(values[0])
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.engine.MovieClicks(r.Context(), chi.URLParam(r, "id"), values[0], values[1])
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToListResponse(page))
}
