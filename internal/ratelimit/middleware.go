package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Middleware guards an endpoint with the limiter. Exceeding the limit gets a
// 429 with Retry-After; every response carries X-RateLimit headers.
func Middleware(l *Limiter, endpoint string, maxRequests int, windowLen time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ClientKey(r)
			allowed := l.Allow(endpoint, id, maxRequests, windowLen)
			status := l.GetStatus(endpoint, id, maxRequests, windowLen)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetTime.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(status.ResetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate limit exceeded",
					"retry_after": retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
