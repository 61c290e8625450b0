package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AdminAuthConfig holds configuration for the admin auth middleware.
type AdminAuthConfig struct {
	Logger *slog.Logger
	// Token is the shared admin bearer token. Empty rejects every request.
	Token string
}

// AdminAuth guards the admin API with a static bearer token.
// Both sides are hashed before comparison so the check does not leak
// the token length through timing.
func AdminAuth(cfg AdminAuthConfig) func(http.Handler) http.Handler {
	want := sha256.Sum256([]byte(cfg.Token))
	enabled := cfg.Token != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			got := sha256.Sum256([]byte(token))

			if !enabled || token == "" || subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				reason := "invalid_token"
				switch {
				case !enabled:
					reason = "admin_disabled"
				case token == "":
					reason = "missing_token"
				}
				cfg.Logger.Warn("admin authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the token from "Authorization: Bearer <token>".
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
