package api

import (
	"context"
	"net/http"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/user"
)

// SubmitAssessmentRequest is the body of POST /api/assessments/submit. Type is
// accepted for older clients; grading always uses the stored assessment type.
type SubmitAssessmentRequest struct {
	AssessmentID string `json:"assessmentId" validate:"required"`
	UserID       string `json:"userId"`
	Answer       string `json:"answer" validate:"max=10000"`
	Type         string `json:"type" validate:"omitempty,oneof=mcq code text"`
}

// SubmitAssessmentResponse reports a graded submission.
type SubmitAssessmentResponse struct {
	Submission *assessment.Submission `json:"submission"`
	Passed     bool                   `json:"passed"`
	Feedback   string                 `json:"feedback"`
}

// AssessmentGrader grades and stores answers. *assessment.Service satisfies it.
type AssessmentGrader interface {
	Submit(ctx context.Context, assessmentID, userID, answer string) (*assessment.Submission, error)
}

// AssessmentHandlers holds dependencies for assessment HTTP handlers.
type AssessmentHandlers struct {
	grader AssessmentGrader
	users  user.UserRepository
}

// NewAssessmentHandlers creates a new AssessmentHandlers instance.
func NewAssessmentHandlers(grader AssessmentGrader, users user.UserRepository) *AssessmentHandlers {
	return &AssessmentHandlers{grader: grader, users: users}
}

// Submit handles POST /api/assessments/submit.
func (h *AssessmentHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitAssessmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := actingUser(r, req.UserID)
	if !requireUser(w, r, userID) {
		return
	}
	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	sub, err := h.grader.Submit(r.Context(), req.AssessmentID, userID, req.Answer)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, SubmitAssessmentResponse{
		Submission: sub,
		Passed:     sub.Passed(),
		Feedback:   sub.Feedback,
	})
}
