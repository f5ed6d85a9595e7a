package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/user"
)

// ReelToggleRequest is the body of POST /api/like and POST /api/save.
type ReelToggleRequest struct {
	UserID string `json:"userId"`
	ReelID string `json:"reelId" validate:"required"`
}

// FollowRequest is the body of POST /api/follow. Either target field may be used.
type FollowRequest struct {
	UserID       string `json:"userId"`
	TargetID     string `json:"targetId" validate:"required_without=TargetUserID"`
	TargetUserID string `json:"targetUserId"`
}

func (req FollowRequest) target() string {
	if req.TargetID != "" {
		return req.TargetID
	}
	return req.TargetUserID
}

// SavedCourse is the course block attached to a saved reel.
type SavedCourse struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Creator *user.Summary `json:"creator,omitempty"`
}

// SavedReel is the reel block of a saved reel entry.
type SavedReel struct {
	course.Reel
	Course SavedCourse `json:"course"`
}

// SavedReelView is one entry of GET /api/save.
type SavedReelView struct {
	UserID    string    `json:"userId"`
	ReelID    string    `json:"reelId"`
	CreatedAt time.Time `json:"createdAt"`
	Reel      SavedReel `json:"reel"`
}

// SocialHandlers serves likes, saves and follows.
type SocialHandlers struct {
	social  *social.Service
	courses course.CourseRepository
	users   user.UserRepository
}

// NewSocialHandlers creates a new SocialHandlers instance.
func NewSocialHandlers(svc *social.Service, courses course.CourseRepository, users user.UserRepository) *SocialHandlers {
	return &SocialHandlers{social: svc, courses: courses, users: users}
}

// GetLike handles GET /api/like?userId&reelId.
func (h *SocialHandlers) GetLike(w http.ResponseWriter, r *http.Request) {
	userID := actingUser(r, r.URL.Query().Get("userId"))
	reelID := r.URL.Query().Get("reelId")
	if userID == "" || reelID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "userId and reelId are required")
		return
	}

	liked, err := h.social.Repository().IsLiked(r.Context(), userID, reelID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"isLiked": liked})
}

// ToggleLike handles POST /api/like.
func (h *SocialHandlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	var req ReelToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := actingUser(r, req.UserID)
	if !requireUser(w, r, userID) {
		return
	}
	if _, err := h.courses.GetReel(r.Context(), req.ReelID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	liked, err := h.social.ToggleLike(r.Context(), userID, req.ReelID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"liked": liked})
}

// GetFollow handles GET /api/follow?userId&targetId.
func (h *SocialHandlers) GetFollow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := actingUser(r, q.Get("userId"))
	targetID := q.Get("targetId")
	if targetID == "" {
		targetID = q.Get("targetUserId")
	}
	if userID == "" || targetID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeValidation, "userId and targetId are required")
		return
	}

	following, err := h.social.Repository().IsFollowing(r.Context(), userID, targetID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"isFollowing": following})
}

// ToggleFollow handles POST /api/follow.
func (h *SocialHandlers) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	var req FollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := actingUser(r, req.UserID)
	if !requireUser(w, r, userID) {
		return
	}
	targetID := req.target()
	if _, err := h.users.GetByID(r.Context(), targetID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	following, err := h.social.ToggleFollow(r.Context(), userID, targetID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"following": following})
}

// ListSaved handles GET /api/save?userId.
func (h *SocialHandlers) ListSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := actingUser(r, r.URL.Query().Get("userId"))
	if !requireUser(w, r, userID) {
		return
	}

	saves, err := h.social.Repository().ListSaved(ctx, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	courses := make(map[string]*course.Course)
	out := make([]SavedReelView, 0, len(saves))
	for _, s := range saves {
		reel, err := h.courses.GetReel(ctx, s.ReelID)
		if errors.Is(err, course.ErrReelNotFound) {
			continue
		}
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		c, ok := courses[reel.CourseID]
		if !ok {
			if c, err = h.courses.GetByID(ctx, reel.CourseID); err != nil {
				writeDomainError(w, r, err)
				return
			}
			courses[reel.CourseID] = c
		}

		out = append(out, SavedReelView{
			UserID:    s.UserID,
			ReelID:    s.ReelID,
			CreatedAt: s.CreatedAt,
			Reel:      SavedReel{Reel: *reel, Course: SavedCourse{ID: c.ID, Title: c.Title}},
		})
	}

	if err := h.attachCreators(r, out, courses); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"savedReels": out})
}

func (h *SocialHandlers) attachCreators(r *http.Request, views []SavedReelView, courses map[string]*course.Course) error {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CreatorID)
	}
	creators, err := h.users.GetByIDs(r.Context(), ids)
	if err != nil {
		return err
	}
	for i := range views {
		c := courses[views[i].Reel.CourseID]
		if u, ok := creators[c.CreatorID]; ok {
			s := u.Summary()
			views[i].Reel.Course.Creator = &s
		}
	}
	return nil
}

// ToggleSave handles POST /api/save.
func (h *SocialHandlers) ToggleSave(w http.ResponseWriter, r *http.Request) {
	var req ReelToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := actingUser(r, req.UserID)
	if !requireUser(w, r, userID) {
		return
	}
	if _, err := h.courses.GetReel(r.Context(), req.ReelID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	saved, err := h.social.ToggleSave(r.Context(), userID, req.ReelID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"saved": saved})
}
