package api

import (
	"context"
	"net/http"

	"github.com/onnwee/reeled/internal/feed"
)

// FeedSource builds ranked feeds. *feed.Service satisfies it.
type FeedSource interface {
	GetFeed(ctx context.Context, userID string) (*feed.Result, error)
}

// FeedHandlers serves the personalized reel feed.
type FeedHandlers struct {
	feed FeedSource
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(source FeedSource) *FeedHandlers {
	return &FeedHandlers{feed: source}
}

// GetFeed handles GET /api/feed?userId=.
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	res, err := h.feed.GetFeed(r.Context(), viewer(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
