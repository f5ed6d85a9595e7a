package api

import (
	"errors"
	"net/http"

	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/user"
)

// RecordProgressRequest is the body of POST /api/progress. Clients send the reel
// position as either currentReelIndex or reelIndex.
type RecordProgressRequest struct {
	UserID           string `json:"userId"`
	CourseID         string `json:"courseId" validate:"required"`
	CurrentReelIndex *int   `json:"currentReelIndex" validate:"required_without=ReelIndex"`
	ReelIndex        *int   `json:"reelIndex"`
	Completed        bool   `json:"completed"`
}

func (req RecordProgressRequest) index() int {
	if req.CurrentReelIndex != nil {
		return *req.CurrentReelIndex
	}
	return *req.ReelIndex
}

// ProgressCourse is the course block attached to a progress record.
type ProgressCourse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	TotalReels int    `json:"totalReels"`
}

// ProgressView is a progress record with its course.
type ProgressView struct {
	*progress.Progress
	Course ProgressCourse `json:"course"`
}

// ProgressHandlers holds dependencies for progress HTTP handlers.
type ProgressHandlers struct {
	progress progress.ProgressRepository
	courses  course.CourseRepository
	users    user.UserRepository
}

// NewProgressHandlers creates a new ProgressHandlers instance.
func NewProgressHandlers(records progress.ProgressRepository, courses course.CourseRepository, users user.UserRepository) *ProgressHandlers {
	return &ProgressHandlers{progress: records, courses: courses, users: users}
}

// ListProgress handles GET /api/progress?userId, most recently accessed first.
func (h *ProgressHandlers) ListProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.progress.ListByUser(ctx, viewer(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]ProgressView, 0, len(records))
	for _, p := range records {
		c, err := h.courses.GetByID(ctx, p.CourseID)
		if errors.Is(err, course.ErrCourseNotFound) {
			continue
		}
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		out = append(out, ProgressView{
			Progress: p,
			Course:   ProgressCourse{ID: c.ID, Title: c.Title, TotalReels: len(c.Reels)},
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"progress": out})
}

// RecordProgress handles POST /api/progress.
func (h *ProgressHandlers) RecordProgress(w http.ResponseWriter, r *http.Request) {
	var req RecordProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	userID := actingUser(r, req.UserID)
	if !requireUser(w, r, userID) {
		return
	}
	if _, err := h.users.GetByID(ctx, userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.progress.Record(ctx, progress.Update{
		UserID:     userID,
		CourseID:   c.ID,
		ReelIndex:  req.index(),
		Completed:  req.Completed,
		TotalReels: len(c.Reels),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"progress": ProgressView{
		Progress: p,
		Course:   ProgressCourse{ID: c.ID, Title: c.Title, TotalReels: len(c.Reels)},
	}})
}
