package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/reeled/internal/auth"
)

// TokenValidator validates bearer tokens. *auth.JWTService satisfies it.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// BearerIdentity resolves the caller from an "Authorization: Bearer <token>" header and stores
// the token subject with SetUserID. Requests without the header pass through anonymously;
// a present but invalid token is rejected with 401. A nil validator disables the middleware.
func BearerIdentity(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				UpdateResponseContext(w, SetErrorCode(r.Context(), "auth_failed"))
				writeJSONError(w, http.StatusUnauthorized, "auth_failed", "Malformed authorization header")
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				slog.DebugContext(r.Context(), "bearer token rejected", "error", err)
				UpdateResponseContext(w, SetErrorCode(r.Context(), "auth_failed"))
				writeJSONError(w, http.StatusUnauthorized, "auth_failed", "Invalid or expired token")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			UpdateResponseContext(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
