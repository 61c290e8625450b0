package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cinelink/cinelink/internal/handler/dto"
	"github.com/cinelink/cinelink/internal/service"
)

// EpisodeHandler serves public episode lookups and clicks.
type EpisodeHandler struct {
	episodes *service.EpisodeService
	clicks   *service.ClickRecorder
	logger   *slog.Logger
}

// NewEpisodeHandler creates a new EpisodeHandler.
func NewEpisodeHandler(episodes *service.EpisodeService, clicks *service.ClickRecorder, logger *slog.Logger) *EpisodeHandler {
	return &EpisodeHandler{
		episodes: episodes,
		clicks:   clicks,
		logger:   logger.With("component", "handler.episode"),
	}
}

// Get handles GET /api/episodes/{id}.
func (h *EpisodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	episode, err := h.episodes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, episode)
}

// Click handles POST /api/episodes/{id}/click.
func (h *EpisodeHandler) Click(w http.ResponseWriter, r *http.Request) {
	res, err := h.clicks.RecordEpisodeClick(r.Context(), chi.URLParam(r, "id"), requestInfo(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("episode_clicked",
		"episode_id", res.EpisodeID,
		"movie_id", res.MovieID,
		"click_count", res.ClickCount,
	)
	writeData(w, http.StatusOK, dto.ToClickResponse(res))
}
