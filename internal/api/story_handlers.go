package api

import (
	"net/http"
	"time"

	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/story"
	"github.com/onnwee/reeled/internal/user"
)

// CreateStoryRequest represents the request body for posting a story.
type CreateStoryRequest struct {
	UserID    string `json:"userId"`
	MediaURL  string `json:"mediaUrl" validate:"required"`
	MediaType string `json:"mediaType" validate:"omitempty,oneof=image video"`
	Text      string `json:"text"`
	Link      string `json:"link"`
}

// ViewStoryRequest is the body of PATCH /api/stories.
type ViewStoryRequest struct {
	StoryID string `json:"storyId" validate:"required"`
}

// StoryGroupView is one author's active stories.
type StoryGroupView struct {
	User    user.Summary   `json:"user"`
	Stories []*story.Story `json:"stories"`
}

// StoryView is a story with its author.
type StoryView struct {
	*story.Story
	User user.Summary `json:"user"`
}

// StoryHandlers holds dependencies for story HTTP handlers.
type StoryHandlers struct {
	stories story.StoryRepository
	follows social.SocialRepository
	users   user.UserRepository
	ttl     time.Duration
	now     func() time.Time
}

// NewStoryHandlers creates a new StoryHandlers instance. A non-positive ttl uses story.DefaultTTL.
func NewStoryHandlers(stories story.StoryRepository, follows social.SocialRepository, users user.UserRepository, ttl time.Duration) *StoryHandlers {
	if ttl <= 0 {
		ttl = story.DefaultTTL
	}
	return &StoryHandlers{
		stories: stories,
		follows: follows,
		users:   users,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListStories handles GET /api/stories?userId. It returns active stories of the
// users the viewer follows plus the viewer's own, grouped by author.
func (h *StoryHandlers) ListStories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := viewer(r)

	authors, err := h.follows.FollowingIDs(ctx, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	authors = append(authors, userID)

	active, err := h.stories.ListActive(ctx, authors, h.now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	groups := story.GroupByUser(active)
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.UserID
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]StoryGroupView, 0, len(groups))
	for _, g := range groups {
		u, ok := users[g.UserID]
		if !ok {
			continue
		}
		out = append(out, StoryGroupView{User: u.Summary(), Stories: g.Stories})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// CreateStory handles POST /api/stories.
func (h *StoryHandlers) CreateStory(w http.ResponseWriter, r *http.Request) {
	var req CreateStoryRequest
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

	s, err := story.New(story.Input{
		UserID:    userID,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		Text:      req.Text,
		Link:      req.Link,
	}, h.now(), h.ttl)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.stories.Create(ctx, s); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, StoryView{Story: s, User: author.Summary()})
}

// ViewStory handles PATCH /api/stories, counting one view.
func (h *StoryHandlers) ViewStory(w http.ResponseWriter, r *http.Request) {
	var req ViewStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.stories.IncrementViews(r.Context(), req.StoryID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
