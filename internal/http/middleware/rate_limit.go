package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/osadchyi/contacts-api/internal/http/response"
	"github.com/osadchyi/contacts-api/internal/platform/cache"
)

// RateLimitPerUser applies a fixed-window limit keyed by the resolved
// user. Must be mounted after RequireUser. Fails open when the limiter is
// degraded or unreachable.
func RateLimitPerUser(limiter *cache.RateLimiter, name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := CurrentUser(r)
			if info == nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}

			key := fmt.Sprintf("rl:%s:%d", name, info.ID)
			if !limiter.Allow(r.Context(), key, limit, window) {
				response.RateLimit(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
