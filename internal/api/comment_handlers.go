package api

import (
	"net/http"

	"github.com/onnwee/reeled/internal/comment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/user"
)

// CreateCommentRequest represents the request body for commenting on a reel.
type CreateCommentRequest struct {
	UserID string `json:"userId"`
	ReelID string `json:"reelId" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// CommentView is a comment with its author.
type CommentView struct {
	*comment.Comment
	User *user.Summary `json:"user,omitempty"`
}

// CommentHandlers holds dependencies for comment HTTP handlers.
type CommentHandlers struct {
	comments comment.CommentRepository
	courses  course.CourseRepository
	users    user.UserRepository
}

// NewCommentHandlers creates a new CommentHandlers instance.
func NewCommentHandlers(comments comment.CommentRepository, courses course.CourseRepository, users user.UserRepository) *CommentHandlers {
	return &CommentHandlers{comments: comments, courses: courses, users: users}
}

// ListComments handles GET /api/comments?reelId.
func (h *CommentHandlers) ListComments(w http.ResponseWriter, r *http.Request) {
	reelID := r.URL.Query().Get("reelId")
	if reelID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "reelId is required")
		return
	}

	comments, err := h.comments.ListByReel(r.Context(), reelID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	authors, err := h.users.GetByIDs(r.Context(), ids)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]CommentView, len(comments))
	for i, c := range comments {
		out[i] = CommentView{Comment: c}
		if u, ok := authors[c.UserID]; ok {
			s := u.Summary()
			out[i].User = &s
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"comments": out})
}

// CreateComment handles POST /api/comments.
func (h *CommentHandlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	userID := actingUser(r, req.UserID)
	if !requireUser(w, r, userID) {
		return
	}
	author, err := h.users.GetByID(ctx, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if _, err := h.courses.GetReel(ctx, req.ReelID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	c, err := comment.New(userID, req.ReelID, req.Text)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.comments.Create(ctx, c); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s := author.Summary()
	writeJSON(w, r, http.StatusCreated, map[string]any{"comment": CommentView{Comment: c, User: &s}})
}
