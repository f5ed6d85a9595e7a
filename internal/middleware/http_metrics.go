package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// dynamicPrefixes maps path prefixes with one trailing dynamic segment to their route pattern.
var dynamicPrefixes = []struct {
	prefix  string
	pattern string
}{
	{"/api/courses/", "/api/courses/{id}"},
	{"/api/profile/", "/api/profile/{username}"},
}

// normalizePath converts paths with dynamic segments to route patterns to prevent
// cardinality explosion in metrics. Used when no chi route pattern is available
// (for example when the request never reached the router).
func normalizePath(path string) string {
	for _, d := range dynamicPrefixes {
		if rest, ok := strings.CutPrefix(path, d.prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return d.pattern
		}
	}
	if strings.HasPrefix(path, "/api/") || path == "/health" || path == "/ready" || path == "/metrics" || path == "/" {
		return path
	}
	// Unknown paths collapse into one series.
	return "other"
}

// routePattern prefers the pattern chi matched for the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	if !mrw.wroteHeader {
		mrw.WriteHeader(http.StatusOK)
	}
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer.
func (mrw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return mrw.ResponseWriter
}

// HTTPMetrics is a middleware that records HTTP request metrics.
// Health and readiness probes are excluded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			requestSize := max(r.ContentLength, 0)

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				routePattern(r),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
