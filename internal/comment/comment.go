// Package comment provides reel comments and their repositories.
package comment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/reeled/internal/validate"
)

// ErrInvalidComment is returned by New for empty or oversized text.
var ErrInvalidComment = errors.New("invalid comment")

// Comment is a user's remark on a reel. Text is stored HTML-escaped.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ReelID    string    `json:"reelId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// New builds a comment with trimmed, escaped text.
func New(userID, reelID, text string) (*Comment, error) {
	clean, err := validate.CommentText(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidComment, err)
	}
	return &Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		ReelID:    reelID,
		Text:      clean,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	// ListByReel returns a reel's comments, newest first.
	ListByReel(ctx context.Context, reelID string) ([]*Comment, error)
}

// InMemoryCommentRepository is an in-memory implementation of CommentRepository.
// Thread-safe via RWMutex.
type InMemoryCommentRepository struct {
	mu     sync.RWMutex
	byReel map[string][]Comment
}

// NewInMemoryCommentRepository creates a new in-memory comment repository.
func NewInMemoryCommentRepository() *InMemoryCommentRepository {
	return &InMemoryCommentRepository{byReel: make(map[string][]Comment)}
}

func (r *InMemoryCommentRepository) Create(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.byReel[c.ReelID] = append(r.byReel[c.ReelID], *c)
	return nil
}

func (r *InMemoryCommentRepository) ListByReel(_ context.Context, reelID string) ([]*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byReel[reelID]
	out := make([]*Comment, len(stored))
	for i := range stored {
		c := stored[i]
		out[i] = &c
	}
	// Stable on insertion order so equal timestamps list the later comment first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
