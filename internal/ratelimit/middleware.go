package ratelimit

import (
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the value for the Retry-After header when a
// rate limit is exceeded.
const DefaultRetryAfterSeconds = 1

// Middleware creates HTTP middleware that enforces per-user rate limits.
// getUserID extracts the caller's id from the request; requests without one
// pass through untouched and are left to the auth middleware.
//
// Returns 429 Too Many Requests when the limit is exceeded, with a
// Retry-After header and an X-RateLimit-Remaining count on success.
func Middleware(limiter *RateLimiter, getUserID func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := getUserID(r)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			rateLimiter := limiter.GetLimiter(userID)

			if !rateLimiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail": "Too Many Requests"}`))
				return
			}

			remaining := int(rateLimiter.Tokens())
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			next.ServeHTTP(w, r)
		})
	}
}
