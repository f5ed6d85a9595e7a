package course

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCourseRepository is an in-memory implementation of CourseRepository.
// Thread-safe via RWMutex.
type InMemoryCourseRepository struct {
	mu      sync.RWMutex
	courses map[string]*Course
	order   []string          // insertion order
	reels   map[string]string // reel ID -> course ID
}

// NewInMemoryCourseRepository creates a new in-memory course repository.
func NewInMemoryCourseRepository() *InMemoryCourseRepository {
	return &InMemoryCourseRepository{
		courses: make(map[string]*Course),
		reels:   make(map[string]string),
	}
}

func (r *InMemoryCourseRepository) Create(_ context.Context, c *Course) error {
	if err := prepare(c, uuid.NewString, time.Now().UTC()); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.courses[c.ID] = copyCourse(c)
	r.order = append(r.order, c.ID)
	for _, reel := range c.Reels {
		r.reels[reel.ID] = c.ID
	}
	return nil
}

func (r *InMemoryCourseRepository) GetByID(_ context.Context, id string) (*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return copyCourse(c), nil
}

// collect returns copies of the courses that satisfy keep, in insertion order.
func (r *InMemoryCourseRepository) collect(keep func(*Course) bool) []*Course {
	var out []*Course
	for _, id := range r.order {
		if c := r.courses[id]; keep(c) {
			out = append(out, copyCourse(c))
		}
	}
	return out
}

func newestFirst(courses []*Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
}

func (r *InMemoryCourseRepository) List(_ context.Context) ([]*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.collect(func(*Course) bool { return true })
	newestFirst(out)
	return out, nil
}

func (r *InMemoryCourseRepository) ListPublic(_ context.Context) ([]*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(c *Course) bool { return c.Visibility == VisibilityPublic }), nil
}

func (r *InMemoryCourseRepository) ListByCreator(_ context.Context, creatorID string) ([]*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.collect(func(c *Course) bool { return c.CreatorID == creatorID })
	newestFirst(out)
	return out, nil
}

func (r *InMemoryCourseRepository) Search(_ context.Context, query string, limit int) ([]*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := r.collect(func(c *Course) bool {
		return c.Visibility == VisibilityPublic &&
			(strings.Contains(strings.ToLower(c.Title), q) ||
				strings.Contains(strings.ToLower(c.Description), q) ||
				strings.Contains(strings.ToLower(c.Tags), q))
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// reelLocked returns the stored reel for id. Caller holds r.mu.
func (r *InMemoryCourseRepository) reelLocked(reelID string) (*Reel, error) {
	courseID, ok := r.reels[reelID]
	if !ok {
		return nil, ErrReelNotFound
	}
	c := r.courses[courseID]
	for i := range c.Reels {
		if c.Reels[i].ID == reelID {
			return &c.Reels[i], nil
		}
	}
	return nil, ErrReelNotFound
}

func (r *InMemoryCourseRepository) GetReel(_ context.Context, reelID string) (*Reel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reel, err := r.reelLocked(reelID)
	if err != nil {
		return nil, err
	}
	c := *reel
	return &c, nil
}

func (r *InMemoryCourseRepository) AdjustReelLikes(_ context.Context, reelID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reel, err := r.reelLocked(reelID)
	if err != nil {
		return err
	}
	reel.LikesCount = max(0, reel.LikesCount+delta)
	return nil
}

func (r *InMemoryCourseRepository) IncrementReelViews(_ context.Context, reelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reel, err := r.reelLocked(reelID)
	if err != nil {
		return err
	}
	reel.Views++
	return nil
}

func copyCourse(c *Course) *Course {
	out := *c
	out.Reels = append([]Reel(nil), c.Reels...)
	return &out
}
