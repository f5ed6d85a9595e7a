package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing instruments requests with OpenTelemetry spans using W3C Trace Context propagation.
// Place it after RequestID in the chain.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				// Route patterns keep span names low-cardinality, e.g. "GET /api/courses/{id}".
				return r.Method + " " + normalizePath(r.URL.Path)
			}),
		)
	}
}

// GetTraceID extracts the trace ID from the request context.
// Returns empty string if no trace is active.
func GetTraceID(r *http.Request) string {
	spanCtx := trace.SpanContextFromContext(r.Context())
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
