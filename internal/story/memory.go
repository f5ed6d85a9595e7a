package story

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStoryRepository is an in-memory implementation of StoryRepository.
// Thread-safe via RWMutex.
type InMemoryStoryRepository struct {
	mu      sync.RWMutex
	stories map[string]*Story
}

// NewInMemoryStoryRepository creates a new in-memory story repository.
func NewInMemoryStoryRepository() *InMemoryStoryRepository {
	return &InMemoryStoryRepository{stories: make(map[string]*Story)}
}

func (r *InMemoryStoryRepository) Create(_ context.Context, s *Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c := *s
	r.stories[s.ID] = &c
	return nil
}

func (r *InMemoryStoryRepository) ListActive(_ context.Context, userIDs []string, now time.Time) ([]*Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	var out []*Story
	for _, s := range r.stories {
		if _, ok := wanted[s.UserID]; ok && s.Active(now) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryStoryRepository) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stories[id]
	if !ok {
		return ErrStoryNotFound
	}
	s.Views++
	return nil
}

func (r *InMemoryStoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, s := range r.stories {
		if !s.Active(now) {
			delete(r.stories, id)
			deleted++
		}
	}
	return deleted, nil
}
