package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/reeled/internal/auth"
)

const identityTestSecret = "identity-test-secret-0123456789abcdef"

func TestBearerIdentity(t *testing.T) {
	jwtService := auth.NewJWTService(identityTestSecret)
	valid, err := jwtService.GenerateAccessToken("user-7", "grace")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"no header passes anonymously", "", http.StatusOK, ""},
		{"valid token sets user", "Bearer " + valid, http.StatusOK, "user-7"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer not-a-token", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := BearerIdentity(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if gotUser != tt.wantUser {
				t.Errorf("expected user %q, got %q", tt.wantUser, gotUser)
			}
		})
	}
}

func TestBearerIdentity_NilValidator(t *testing.T) {
	called := false
	handler := BearerIdentity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected request to reach the handler when bearer auth is disabled")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
