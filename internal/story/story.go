// Package story provides ephemeral stories that expire a fixed time after posting.
package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/reeled/internal/validate"
)

// DefaultTTL is how long a story stays visible.
const DefaultTTL = 24 * time.Hour

// Media types.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Errors returned by stories.
var (
	ErrStoryNotFound    = errors.New("story not found")
	ErrInvalidStory     = errors.New("invalid story")
	ErrInvalidMediaType = errors.New("media type must be image or video")
)

// Story is a short-lived post shown to followers.
type Story struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MediaURL  string    `json:"mediaUrl"`
	MediaType string    `json:"mediaType"`
	Text      string    `json:"text,omitempty"`
	Link      string    `json:"link,omitempty"`
	Views     int       `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Input carries the caller-supplied fields of a new story.
type Input struct {
	UserID    string
	MediaURL  string
	MediaType string
	Text      string
	Link      string
}

// New validates in and returns a story created at now that expires after ttl.
// An empty media type defaults to image.
func New(in Input, now time.Time, ttl time.Duration) (*Story, error) {
	mediaURL, err := validate.MediaURL(in.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: media url: %w", ErrInvalidStory, err)
	}

	mediaType := in.MediaType
	switch mediaType {
	case "":
		mediaType = MediaTypeImage
	case MediaTypeImage, MediaTypeVideo:
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidStory, ErrInvalidMediaType)
	}

	text, err := validate.StoryText(in.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: text: %w", ErrInvalidStory, err)
	}

	link := in.Link
	if link != "" {
		if link, err = validate.Link(link); err != nil {
			return nil, fmt.Errorf("%w: link: %w", ErrInvalidStory, err)
		}
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Story{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		MediaURL:  mediaURL,
		MediaType: mediaType,
		Text:      text,
		Link:      link,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Active reports whether s is still visible at now.
func (s *Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// StoryRepository defines the interface for story data operations.
type StoryRepository interface {
	Create(ctx context.Context, s *Story) error
	// ListActive returns unexpired stories by any of userIDs, newest first.
	ListActive(ctx context.Context, userIDs []string, now time.Time) ([]*Story, error)
	IncrementViews(ctx context.Context, id string) error
	// DeleteExpired removes stories that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Group is one user's active stories.
type Group struct {
	UserID  string   `json:"userId"`
	Stories []*Story `json:"stories"`
}

// GroupByUser buckets stories by author, keeping the input order within and
// across groups (a group appears where its author's first story appears).
func GroupByUser(stories []*Story) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, s := range stories {
		i, ok := index[s.UserID]
		if !ok {
			i = len(groups)
			index[s.UserID] = i
			groups = append(groups, Group{UserID: s.UserID})
		}
		groups[i].Stories = append(groups[i].Stories, s)
	}
	return groups
}
