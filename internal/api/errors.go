// Package api provides the HTTP surface of the Reeled API: JSON handlers, the
// standard error envelope, and the chi router that wires them together.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/comment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/middleware"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/story"
	"github.com/onnwee/reeled/internal/user"
	"github.com/onnwee/reeled/internal/validate"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeForbidden indicates the request is forbidden.
	ErrCodeForbidden = "forbidden"

	// ErrCodeConflict indicates a conflict with the current state.
	ErrCodeConflict = "conflict"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
//
// The code is picked up by the logging middleware for 4xx and 5xx responses when
// the caller stores it with middleware.SetErrorCode first:
//
//	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
//	api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "Course not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, ctx)

	data, err := json.Marshal(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// writeErrorCode sets the error code on the request context and writes the envelope.
func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	ctx := middleware.SetErrorCode(r.Context(), code)
	WriteError(w, ctx, status, code, message)
}

// StatusCodeMapping returns the recommended HTTP status code for an error code.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// domainErrors maps repository and service sentinels to an error code and client message.
var domainErrors = []struct {
	target  error
	code    string
	message string
}{
	{user.ErrUserNotFound, ErrCodeNotFound, "User not found"},
	{course.ErrCourseNotFound, ErrCodeNotFound, "Course not found"},
	{course.ErrReelNotFound, ErrCodeNotFound, "Reel not found"},
	{course.ErrCreatorNotFound, ErrCodeNotFound, "Creator not found"},
	{story.ErrStoryNotFound, ErrCodeNotFound, "Story not found"},
	{assessment.ErrAssessmentNotFound, ErrCodeNotFound, "Assessment not found"},
	{assessment.ErrUnknownReference, ErrCodeNotFound, "Assessment or user not found"},
	{progress.ErrUnknownReference, ErrCodeNotFound, "User or course not found"},
	{social.ErrUnknownTarget, ErrCodeNotFound, "User or reel not found"},
	{user.ErrDuplicateUser, ErrCodeConflict, "Email or username already taken"},
	{social.ErrSelfFollow, ErrCodeValidation, "Cannot follow yourself"},
	{course.ErrNoReels, ErrCodeValidation, "Course must have at least one reel"},
	{assessment.ErrUnknownType, ErrCodeValidation, "Unknown assessment type"},
}

// writeDomainError translates err into the error envelope. Errors without a mapping
// are logged and reported as internal errors.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			writeErrorCode(w, r, StatusCodeMapping(m.code), m.code, m.message)
			return
		}
	}

	// Input errors carry the validator's reason, which is safe to show.
	var reqErr *validate.RequestError
	switch {
	case errors.As(err, &reqErr):
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, reqErr.Error())
		return
	case errors.Is(err, progress.ErrInvalidReelIndex),
		errors.Is(err, comment.ErrInvalidComment),
		errors.Is(err, story.ErrInvalidStory),
		errors.Is(err, story.ErrInvalidMediaType):
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
}
