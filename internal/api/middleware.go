package api

import (
	"net/http"
	"runtime/debug"
	"slices"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/logutil"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/obs"
)

// CORSMiddleware answers preflight requests and stamps the allow headers on
// every response. origins is either a list of exact origins or the single
// wildcard entry "*".
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := ""
			switch {
			case origin == "":
				// Not a cross-origin request.
			case wildcard:
				allowed = "*"
			case slices.Contains(origins, origin):
				allowed = origin
			}

			if allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				if allowed != "*" {
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecoveryMiddleware converts panics into 500 responses with a generic
// detail body, logging the panic value and stack.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				obs.From(r.Context()).Error("panic_recovered",
					"panic", rec,
					"path", r.URL.Path,
					"stack", logutil.TruncateForLog(string(debug.Stack()), 4000),
				)
				writeError(w, http.StatusInternalServerError,
					"An internal server error occurred. Please contact support.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// DebugRequestLogMiddleware logs redacted request headers. Only wired in
// when DEBUG is enabled; the access log middleware covers normal operation.
func DebugRequestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs.From(r.Context()).Debug("http_request_headers",
			"method", r.Method,
			"path", r.URL.Path,
			"headers", logutil.FormatHeadersForLog(r.Header),
		)
		next.ServeHTTP(w, r)
	})
}
