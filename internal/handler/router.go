package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cinelink/cinelink/internal/middleware"
)

// RouterConfig collects the handlers and settings the router mounts.
type RouterConfig struct {
	Logger *slog.Logger

	Health    *HealthHandler
	Metrics   *MetricsHandler
	Movies    *MovieHandler
	Episodes  *EpisodeHandler
	Analytics *AnalyticsHandler
	Admin     *AdminHandler

	IsDevelopment      bool
	AdminToken         string
	AllowedOrigins     []string
	ClicksPerMinute    int
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	// One limiter shared by every click route, keyed by client IP.
	clickLimit := middleware.RateLimitClicks(middleware.RateLimitConfig{
		Logger:            cfg.Logger,
		RequestsPerMinute: cfg.ClicksPerMinute,
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", cfg.Movies.List)
			r.Get("/featured", cfg.Movies.Featured)
			r.Get("/popular", cfg.Movies.Popular)
			r.Get("/filters/genres", cfg.Movies.Genres)
			r.Get("/filters/tags", cfg.Movies.Tags)
			r.Get("/slug/{slug}", cfg.Movies.GetBySlug)
			r.Get("/{id}", cfg.Movies.Get)
			r.Get("/{id}/episodes", cfg.Movies.Episodes)
			r.With(clickLimit, middleware.NoStore).Post("/{id}/click", cfg.Movies.Click)
		})

		r.Route("/episodes", func(r chi.Router) {
			r.Get("/{id}", cfg.Episodes.Get)
			r.With(clickLimit, middleware.NoStore).Post("/{id}/click", cfg.Episodes.Click)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/overview", cfg.Analytics.Overview)
			r.Get("/movies/top", cfg.Analytics.TopMovies)
			r.Get("/movies/{id}/stats", cfg.Analytics.MovieStats)
			r.Get("/clicks/hourly", cfg.Analytics.Hourly)
			r.Get("/clicks/daily", cfg.Analytics.Daily)
			r.Get("/referrers", cfg.Analytics.Referrers)
		})

		r.Route("/client", func(r chi.Router) {
			r.Get("/dashboard", cfg.Analytics.Dashboard)
			r.Get("/movies/analytics", cfg.Analytics.ClientMovies)
			r.Get("/movies/{id}/clicks", cfg.Analytics.ClientMovieClicks)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(middleware.AdminAuthConfig{
				Logger: cfg.Logger,
				Token:  cfg.AdminToken,
			}))
			r.Use(middleware.NoStore)

			r.Route("/movies", func(r chi.Router) {
				r.Get("/", cfg.Admin.ListMovies)
				r.Post("/", cfg.Admin.CreateMovie)
				r.Put("/{id}", cfg.Admin.UpdateMovie)
				r.Delete("/{id}", cfg.Admin.DeleteMovie)
				r.Put("/{id}/feature", cfg.Admin.ToggleFeatured)
				r.Post("/{id}/episodes", cfg.Admin.CreateEpisode)
				r.Post("/{id}/episodes/import", cfg.Admin.ImportEpisodes)
			})
			r.Put("/episodes/{id}", cfg.Admin.UpdateEpisode)
			r.Delete("/episodes/{id}", cfg.Admin.DeleteEpisode)

			r.Post("/cache/flush", cfg.Admin.FlushCache)
			r.Get("/jobs", cfg.Admin.Jobs)
			r.Post("/jobs/rollup/run", cfg.Admin.TriggerRollup)
		})
	})

	// 404 and 405 handlers
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
