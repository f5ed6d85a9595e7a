package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/reeled/internal/health"
)

// HealthHandlers provides liveness and readiness endpoints.
type HealthHandlers struct {
	dbChecker      health.Checker
	redisChecker   health.Checker
	metricsEnabled bool
}

// HealthHandlersConfig configures the health check handlers. Nil checkers mean
// the dependency is not configured (in-memory stores, no Redis).
type HealthHandlersConfig struct {
	DBChecker      health.Checker
	RedisChecker   health.Checker
	MetricsEnabled bool
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		dbChecker:      config.DBChecker,
		redisChecker:   config.RedisChecker,
		metricsEnabled: config.MetricsEnabled,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe). It returns 503 when a configured
// dependency fails its check.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true
	check := func(name string, c health.Checker) {
		if c == nil {
			checks[name] = "not_configured"
			return
		}
		if err := c.HealthCheck(ctx); err != nil {
			checks[name] = "error"
			healthy = false
			slog.WarnContext(ctx, name+" health check failed", "error", err)
			return
		}
		checks[name] = "ok"
	}
	check("database", h.dbChecker)
	check("redis", h.redisChecker)

	if h.metricsEnabled {
		checks["metrics"] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
