package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for the per-IP click limiter.
type RateLimitConfig struct {
	Logger *slog.Logger
	// RequestsPerMinute is the allowance per client IP. Zero disables limiting.
	RequestsPerMinute int
}

// RateLimitClicks limits click recording per client IP so a single caller
// cannot inflate counters. The window is a sliding minute kept in memory.
func RateLimitClicks(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("rate limit exceeded",
				slog.String("type", "click"),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many clicks, slow down")
		}),
	)
}
