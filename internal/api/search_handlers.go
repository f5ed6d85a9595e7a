package api

import (
	"net/http"

	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/user"
	"github.com/onnwee/reeled/internal/validate"
)

// Search result types accepted in ?type=.
const (
	SearchTypeAll     = "all"
	SearchTypeUsers   = "users"
	SearchTypeCourses = "courses"
)

// SearchHandlers serves user and course search.
type SearchHandlers struct {
	users   user.UserRepository
	courses course.CourseRepository
}

// NewSearchHandlers creates a new SearchHandlers instance.
func NewSearchHandlers(users user.UserRepository, courses course.CourseRepository) *SearchHandlers {
	return &SearchHandlers{users: users, courses: courses}
}

// Search handles GET /api/search?q&type=users|courses|all.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	q, err := validate.SearchQuery(r.URL.Query().Get("q"))
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "Search query is required and must be at most 100 characters")
		return
	}

	kind := r.URL.Query().Get("type")
	switch kind {
	case "":
		kind = SearchTypeAll
	case SearchTypeAll, SearchTypeUsers, SearchTypeCourses:
	default:
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "type must be one of users, courses, all")
		return
	}

	ctx := r.Context()
	resp := make(map[string]any, 2)
	if kind != SearchTypeCourses {
		users, err := h.users.Search(ctx, q, user.MaxSearchResults)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if users == nil {
			users = []*user.User{}
		}
		resp["users"] = users
	}
	if kind != SearchTypeUsers {
		courses, err := h.courses.Search(ctx, q, course.MaxSearchResults)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if courses == nil {
			courses = []*course.Course{}
		}
		resp["courses"] = courses
	}
	writeJSON(w, r, http.StatusOK, resp)
}
