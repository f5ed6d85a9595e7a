package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/user"
)

// ProfileResponse is a user's public profile page.
type ProfileResponse struct {
	User        *user.User       `json:"user"`
	Courses     []*course.Course `json:"courses"`
	IsFollowing bool             `json:"isFollowing"`
}

// ProfileHandlers serves public profiles.
type ProfileHandlers struct {
	users   user.UserRepository
	courses course.CourseRepository
	follows social.SocialRepository
}

// NewProfileHandlers creates a new ProfileHandlers instance.
func NewProfileHandlers(users user.UserRepository, courses course.CourseRepository, follows social.SocialRepository) *ProfileHandlers {
	return &ProfileHandlers{users: users, courses: courses, follows: follows}
}

// GetProfile handles GET /api/profile/{username}. The viewer comes from the bearer
// token or ?userId and decides isFollowing and whether private courses are listed.
func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "username is required")
		return
	}

	ctx := r.Context()
	u, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	viewerID := actingUser(r, r.URL.Query().Get("userId"))
	all, err := h.courses.ListByCreator(ctx, u.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	courses := make([]*course.Course, 0, len(all))
	for _, c := range all {
		if visibleTo(c, viewerID) {
			courses = append(courses, c)
		}
	}

	resp := ProfileResponse{User: u, Courses: courses}
	if viewerID != "" && viewerID != u.ID {
		if resp.IsFollowing, err = h.follows.IsFollowing(ctx, viewerID, u.ID); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
