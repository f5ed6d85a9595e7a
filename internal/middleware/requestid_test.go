package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name        string
		incoming    string
		wantReuse   bool
		wantNewUUID bool
	}{
		{"generates when absent", "", false, true},
		{"reuses client value", "client-supplied-id", true, false},
		{"replaces oversized value", strings.Repeat("x", maxRequestIDLength+1), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("response header %q does not match context value %q", got, seen)
			}
			if tt.wantReuse && seen != tt.incoming {
				t.Errorf("expected reused id %q, got %q", tt.incoming, seen)
			}
			if tt.wantNewUUID {
				if _, err := uuid.Parse(seen); err != nil {
					t.Errorf("expected generated UUID, got %q", seen)
				}
			}
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
}
