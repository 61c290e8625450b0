// Package main is the entrypoint for the Cinelink API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cinelink/cinelink/internal/analytics"
	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/config"
	"github.com/cinelink/cinelink/internal/handler"
	"github.com/cinelink/cinelink/internal/metrics"
	"github.com/cinelink/cinelink/internal/repository"
	"github.com/cinelink/cinelink/internal/scheduler"
	"github.com/cinelink/cinelink/internal/server"
	"github.com/cinelink/cinelink/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return err
	}
	defer repo.Close()
	logger.Info("connected to database")
	events := repository.NewClickEventRepository(repo)

	// Initialize metrics
	var (
		recorder metrics.Recorder = metrics.NewNoop()
		registry *prometheus.Registry
	)
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheus(registry)
	}

	// Initialize cache. An empty or unreachable Redis leaves the cache
	// disabled or degraded; the service keeps serving from PostgreSQL.
	cacheClient, err := cache.New(ctx, cache.Options{
		URL:             cfg.RedisURL,
		DialTimeout:     cfg.CacheDialTimeout,
		OpTimeout:       cfg.CacheOpTimeout,
		WriteTimeout:    cfg.CacheWriteTimeout,
		SingleFlight:    cfg.CacheSingleFlight,
		ComputeTimeout:  cfg.CacheComputeTimeout,
		BreakerFailures: cfg.CacheBreakerFailures,
		BreakerCooldown: cfg.CacheBreakerCooldown,
		Logger:          logger,
		Metrics:         recorder,
	})
	if err != nil {
		logger.Error(
			"invalid Redis configuration",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return err
	}
	invalidator := cache.NewInvalidator(cacheClient, logger, recorder)

	// Initialize services
	catalog := service.NewCatalogService(repo, cacheClient, invalidator, logger)
	episodes := service.NewEpisodeService(repo, repo, cacheClient, invalidator, logger)
	clicks := service.NewClickRecorder(repo, repo, events, invalidator, logger, recorder)
	engine := analytics.NewEngine(repo, events, cacheClient, logger)

	// Initialize background jobs
	var jobs handler.JobRunner
	var sched *scheduler.Scheduler
	if cfg.RollupEnabled {
		sched = scheduler.New(logger)
		rollup := analytics.NewRollup(events, cfg.RollupRetention, logger, recorder)
		if err := sched.Add(handler.RollupJob, cfg.RollupSchedule, cfg.RollupTimeout, rollup.Run); err != nil {
			return err
		}
		jobs = sched
	}

	// Initialize handlers
	var metricsHandler *handler.MetricsHandler
	if registry != nil {
		metricsHandler = handler.NewMetricsHandler(registry)
	}
	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Health:             handler.NewHealthHandler(repo, cacheClient),
		Metrics:            metricsHandler,
		Movies:             handler.NewMovieHandler(catalog, episodes, clicks, logger),
		Episodes:           handler.NewEpisodeHandler(episodes, clicks, logger),
		Analytics:          handler.NewAnalyticsHandler(engine, logger),
		Admin:              handler.NewAdminHandler(catalog, episodes, jobs, cacheClient, logger),
		IsDevelopment:      cfg.IsDevelopment(),
		AdminToken:         cfg.AdminToken,
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		ClicksPerMinute:    cfg.RateLimitClicksPerMinute,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("cache", cacheClient.Close)
	if sched != nil {
		srv.OnShutdown("scheduler", sched.Stop)
		sched.Start()
	}

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is empty, admin routes reject every request")
	}
	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"cache_enabled", cacheClient.Enabled(),
		"rollup_enabled", cfg.RollupEnabled,
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
