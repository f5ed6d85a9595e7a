package progress

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type progressKey struct {
	userID   string
	courseID string
}

// InMemoryProgressRepository is an in-memory implementation of ProgressRepository.
// Thread-safe via RWMutex.
type InMemoryProgressRepository struct {
	mu      sync.RWMutex
	records map[progressKey]*Progress
	now     func() time.Time
}

// NewInMemoryProgressRepository creates a new in-memory progress repository.
func NewInMemoryProgressRepository() *InMemoryProgressRepository {
	return &InMemoryProgressRepository{
		records: make(map[progressKey]*Progress),
		now:     time.Now,
	}
}

func clone(p *Progress) *Progress {
	c := *p
	c.ReelCompletion = slices.Clone(p.ReelCompletion)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (r *InMemoryProgressRepository) Record(_ context.Context, u Update) (*Progress, error) {
	if err := validate(u); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := progressKey{u.UserID, u.CourseID}
	p, ok := r.records[key]
	if !ok {
		p = &Progress{
			ID:             uuid.NewString(),
			UserID:         u.UserID,
			CourseID:       u.CourseID,
			ReelCompletion: []int{},
		}
		r.records[key] = p
	}
	apply(p, u, r.now().UTC())
	return clone(p), nil
}

func (r *InMemoryProgressRepository) ListByUser(_ context.Context, userID string) ([]*Progress, error) {
	return r.list(func(k progressKey) bool { return k.userID == userID }), nil
}

func (r *InMemoryProgressRepository) ListByCourse(_ context.Context, courseID string) ([]*Progress, error) {
	return r.list(func(k progressKey) bool { return k.courseID == courseID }), nil
}

func (r *InMemoryProgressRepository) list(match func(progressKey) bool) []*Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Progress
	for k, p := range r.records {
		if match(k) {
			out = append(out, clone(p))
		}
	}
	// Most recently accessed first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessedAt.After(out[j].LastAccessedAt)
	})
	return out
}
