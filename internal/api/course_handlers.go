package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/user"
	"github.com/onnwee/reeled/internal/validate"
)

// CreateReelRequest is one reel of a new course, in playback order.
type CreateReelRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	MediaURL    string `json:"mediaUrl" validate:"required"`
	MicroAction string `json:"microAction" validate:"max=280"`
	Duration    int    `json:"duration" validate:"gte=0,lte=600"`
}

// CreateAssessmentRequest attaches a graded exercise to a new course.
type CreateAssessmentRequest struct {
	Type   string            `json:"type" validate:"required,oneof=mcq code text"`
	Config assessment.Config `json:"config"`
}

// CreateCourseRequest represents the request body for creating a course.
type CreateCourseRequest struct {
	CreatorID   string                    `json:"creatorId"`
	Title       string                    `json:"title" validate:"required"`
	Description string                    `json:"description"`
	Price       float64                   `json:"price" validate:"gte=0"`
	Tags        string                    `json:"tags"`
	Visibility  string                    `json:"visibility" validate:"omitempty,oneof=public private"`
	Reels       []CreateReelRequest       `json:"reels" validate:"required,min=1,max=50,dive"`
	Assessments []CreateAssessmentRequest `json:"assessments" validate:"max=20,dive"`
}

// CourseView is a course as returned to clients: the course, its creator and its assessments.
type CourseView struct {
	*course.Course
	Creator     *user.Summary            `json:"creator,omitempty"`
	Assessments []*assessment.Assessment `json:"assessments,omitempty"`
}

// FeedInvalidator drops cached feed candidates. *feed.Service satisfies it.
type FeedInvalidator interface {
	Invalidate(ctx context.Context)
}

// CourseHandlers holds dependencies for course HTTP handlers.
type CourseHandlers struct {
	courses     course.CourseRepository
	users       user.UserRepository
	assessments assessment.AssessmentRepository
	feed        FeedInvalidator
}

// NewCourseHandlers creates a new CourseHandlers instance. feed may be nil.
func NewCourseHandlers(courses course.CourseRepository, users user.UserRepository, assessments assessment.AssessmentRepository, feed FeedInvalidator) *CourseHandlers {
	return &CourseHandlers{courses: courses, users: users, assessments: assessments, feed: feed}
}

// visibleTo reports whether c may be shown to viewerID.
func visibleTo(c *course.Course, viewerID string) bool {
	return c.Visibility != course.VisibilityPrivate || (viewerID != "" && c.CreatorID == viewerID)
}

// ListCourses handles GET /api/courses. Private courses are listed only for their creator.
func (h *CourseHandlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := actingUser(r, r.URL.Query().Get("userId"))

	all, err := h.courses.List(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	visible := make([]*course.Course, 0, len(all))
	creatorIDs := make([]string, 0, len(all))
	for _, c := range all {
		if visibleTo(c, viewerID) {
			visible = append(visible, c)
			creatorIDs = append(creatorIDs, c.CreatorID)
		}
	}

	creators, err := h.users.GetByIDs(ctx, creatorIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	views := make([]CourseView, len(visible))
	for i, c := range visible {
		views[i] = CourseView{Course: c}
		if u, ok := creators[c.CreatorID]; ok {
			s := u.Summary()
			views[i].Creator = &s
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"courses": views})
}

// GetCourse handles GET /api/courses/{id} and the legacy GET /api/course?id=.
func (h *CourseHandlers) GetCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "Course ID is required")
		return
	}

	view, err := h.view(r.Context(), id, actingUser(r, r.URL.Query().Get("userId")))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"course": view})
}

func (h *CourseHandlers) view(ctx context.Context, id, viewerID string) (*CourseView, error) {
	c, err := h.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(c, viewerID) {
		return nil, course.ErrCourseNotFound
	}

	view := &CourseView{Course: c}
	creator, err := h.users.GetByID(ctx, c.CreatorID)
	switch {
	case err == nil:
		s := creator.Summary()
		view.Creator = &s
	case !errors.Is(err, user.ErrUserNotFound):
		return nil, err
	}

	if view.Assessments, err = h.assessments.ListByCourse(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return view, nil
}

// fieldError reports a single invalid request field.
func fieldError(field string, err error) error {
	return &validate.RequestError{Fields: []validate.FieldError{{
		Field:   field,
		Tag:     "invalid",
		Message: fmt.Sprintf("%s: %v", field, err),
	}}}
}

// toCourse validates and normalizes the free-text fields of req.
func (req *CreateCourseRequest) toCourse(creatorID string) (*course.Course, error) {
	title, err := validate.CourseTitle(req.Title)
	if err != nil {
		return nil, fieldError("title", err)
	}
	desc, err := validate.Description(req.Description)
	if err != nil {
		return nil, fieldError("description", err)
	}
	tags, err := validate.Tags(req.Tags)
	if err != nil {
		return nil, fieldError("tags", err)
	}

	c := &course.Course{
		CreatorID:   creatorID,
		Title:       title,
		Description: desc,
		Price:       req.Price,
		Tags:        tags,
		Visibility:  course.Visibility(req.Visibility),
		Reels:       make([]course.Reel, len(req.Reels)),
	}
	for i, in := range req.Reels {
		field := fmt.Sprintf("reels[%d]", i)
		reelTitle, err := validate.CourseTitle(in.Title)
		if err != nil {
			return nil, fieldError(field+".title", err)
		}
		mediaURL, err := validate.MediaURL(in.MediaURL)
		if err != nil {
			return nil, fieldError(field+".mediaUrl", err)
		}
		c.Reels[i] = course.Reel{
			Title:       reelTitle,
			MediaURL:    mediaURL,
			MicroAction: validate.SanitizeHTML(in.MicroAction),
			Duration:    in.Duration,
		}
	}
	return c, nil
}

// CreateCourse handles POST /api/courses.
func (h *CourseHandlers) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	creatorID := actingUser(r, req.CreatorID)
	if creatorID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "creatorId is required")
		return
	}

	c, err := req.toCourse(creatorID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	creator, err := h.users.GetByID(ctx, creatorID)
	if errors.Is(err, user.ErrUserNotFound) {
		err = course.ErrCreatorNotFound
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := h.courses.Create(ctx, c); err != nil {
		writeDomainError(w, r, err)
		return
	}

	view := &CourseView{Course: c}
	s := creator.Summary()
	view.Creator = &s
	for _, in := range req.Assessments {
		a := &assessment.Assessment{CourseID: c.ID, Type: assessment.Type(in.Type), Config: in.Config}
		if err := h.assessments.Create(ctx, a); err != nil {
			writeDomainError(w, r, err)
			return
		}
		view.Assessments = append(view.Assessments, a)
	}

	if h.feed != nil && c.Visibility == course.VisibilityPublic {
		h.feed.Invalidate(ctx)
	}

	slog.InfoContext(ctx, "course created", "course_id", c.ID, "creator_id", creatorID, "reels", len(c.Reels))
	writeJSON(w, r, http.StatusCreated, map[string]any{"course": view})
}
