package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/reeled/internal/health"
)

func passing() health.Checker {
	return health.CheckerFunc(func(context.Context) error { return nil })
}

func failing() health.Checker {
	return health.CheckerFunc(func(context.Context) error { return errors.New("connection refused") })
}

func TestHealth_Success(t *testing.T) {
	handlers := NewHealthHandlers(HealthHandlersConfig{MetricsEnabled: true})

	w := httptest.NewRecorder()
	handlers.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "healthy" || response.Checks["runtime"] != "ok" {
		t.Errorf("unexpected response %+v", response)
	}
	if response.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		config     HealthHandlersConfig
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "nothing configured",
			config:     HealthHandlersConfig{},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "not_configured", "redis": "not_configured"},
		},
		{
			name:       "all healthy",
			config:     HealthHandlersConfig{DBChecker: passing(), RedisChecker: passing(), MetricsEnabled: true},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "ok", "redis": "ok", "metrics": "ok"},
		},
		{
			name:       "database down",
			config:     HealthHandlersConfig{DBChecker: failing(), RedisChecker: passing()},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "error", "redis": "ok"},
		},
		{
			name:       "redis down",
			config:     HealthHandlersConfig{RedisChecker: failing()},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "not_configured", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandlers(tt.config).Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			for name, want := range tt.wantChecks {
				if got := response.Checks[name]; got != want {
					t.Errorf("check %s = %q, want %q", name, got, want)
				}
			}
			wantStatus := "healthy"
			if tt.wantStatus != http.StatusOK {
				wantStatus = "unhealthy"
			}
			if response.Status != wantStatus {
				t.Errorf("expected status %q, got %q", wantStatus, response.Status)
			}
		})
	}
}
