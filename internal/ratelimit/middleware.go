package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"giyus/pkg/platform/httputil"
	"giyus/pkg/requestcontext"
)

type exceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// PerActor limits requests per authenticated actor. It must run after
// auth.RequireActor. Limiter errors fail open.
func PerActor(limiter Limiter, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor := requestcontext.Actor(ctx)

			result, err := limiter.Allow(ctx, "actor:"+actor.ID, limit, window)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check actor rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"actor_id", actor.ID,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				logger.WarnContext(ctx, "actor rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"actor_id", actor.ID,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
					Error:      "rate_limit_exceeded",
					Message:    "Too many changes submitted. Please try again later.",
					RetryAfter: result.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
