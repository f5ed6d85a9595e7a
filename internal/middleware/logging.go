// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// userIDKey is the context key for the authenticated user ID.
type userIDKey struct{}

// errorCodeKey is the context key for error code.
type errorCodeKey struct{}

// SetUserID stores the user ID in the context.
// Called by BearerIdentity after validating a token.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID retrieves the user ID from context. Returns empty string if not present.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// SetErrorCode stores an error code in the context.
// This should be called by handlers when returning error responses.
func SetErrorCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, code)
}

// GetErrorCode retrieves the error code from context. Returns empty string if not present.
func GetErrorCode(ctx context.Context) string {
	if code, ok := ctx.Value(errorCodeKey{}).(string); ok {
		return code
	}
	return ""
}

// UpdateResponseContext hands the error code and user ID carried by ctx back to the logging
// middleware. Inner handlers derive new contexts that the outer middleware cannot see, so the
// values travel on the wrapped response writer instead.
func UpdateResponseContext(w http.ResponseWriter, ctx context.Context) {
	code, userID := GetErrorCode(ctx), GetUserID(ctx)
	if code == "" && userID == "" {
		return
	}
	for w != nil {
		if rw, ok := w.(*responseWriter); ok {
			if code != "" {
				rw.errorCode = code
			}
			if userID != "" {
				rw.userID = userID
			}
			return
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		w = u.Unwrap()
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
	errorCode   string
	userID      string
}

// WriteHeader captures the status code before writing it.
// Only the first call sets the status code; subsequent calls are ignored
// to match http.ResponseWriter behavior where only the first status is sent.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// newResponseWriter creates a new responseWriter with default 200 status.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment.
// In production it returns a JSON handler at info level.
// Otherwise, it returns a text handler at debug level for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging is a middleware that logs HTTP requests with structured fields.
// It captures: method, path, status, latency (ms), request ID, user ID (if present),
// response size, and error_code (for error responses).
//
// Note: If a handler panics, the log entry will not be written. Place a recovery
// middleware outside of the logging middleware.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			latency := time.Since(start).Milliseconds()

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", latency),
				slog.Int("size", rw.size),
			}

			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			userID := rw.userID
			if userID == "" {
				userID = GetUserID(r.Context())
			}
			if userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			if rw.statusCode >= 400 {
				errorCode := rw.errorCode
				if errorCode == "" {
					errorCode = GetErrorCode(r.Context())
				}
				if errorCode != "" {
					attrs = append(attrs, slog.String("error_code", errorCode))
				}
			}

			switch {
			case rw.statusCode >= 500:
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", attrs...)
			case rw.statusCode >= 400:
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", attrs...)
			default:
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}
		})
	}
}
