package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/reeled/internal/middleware"
	"github.com/onnwee/reeled/internal/seed"
	"github.com/onnwee/reeled/internal/validate"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "path", r.URL.Path, "error", err)
	}
}

// decodeJSON reads the request body into dst and validates its struct tags.
// On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorCode(w, r, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return false
	}
	return true
}

// actingUser resolves who performs a request. A bearer identity always wins over
// the id claimed in the query or body.
func actingUser(r *http.Request, claimed string) string {
	if id := middleware.GetUserID(r.Context()); id != "" {
		return id
	}
	return claimed
}

// viewer resolves the reader of a GET request, falling back to the demo learner.
func viewer(r *http.Request) string {
	if id := actingUser(r, r.URL.Query().Get("userId")); id != "" {
		return id
	}
	return seed.DemoLearnerID
}

// requireUser writes a validation error and returns false when no acting user is known.
func requireUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	if userID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "userId is required")
		return false
	}
	return true
}
