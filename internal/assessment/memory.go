package assessment

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryAssessmentRepository is an in-memory implementation of AssessmentRepository.
// Thread-safe via RWMutex.
type InMemoryAssessmentRepository struct {
	mu          sync.RWMutex
	assessments map[string]*Assessment
	order       []string
	submissions []*Submission
}

// NewInMemoryAssessmentRepository creates a new in-memory assessment repository.
func NewInMemoryAssessmentRepository() *InMemoryAssessmentRepository {
	return &InMemoryAssessmentRepository{assessments: make(map[string]*Assessment)}
}

func cloneAssessment(a *Assessment) *Assessment {
	c := *a
	c.Config.Options = slices.Clone(a.Config.Options)
	return &c
}

func (r *InMemoryAssessmentRepository) Create(_ context.Context, a *Assessment) error {
	if !a.Type.Valid() {
		return ErrUnknownType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := r.assessments[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.assessments[a.ID] = cloneAssessment(a)
	return nil
}

func (r *InMemoryAssessmentRepository) GetByID(_ context.Context, id string) (*Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assessments[id]
	if !ok {
		return nil, ErrAssessmentNotFound
	}
	return cloneAssessment(a), nil
}

func (r *InMemoryAssessmentRepository) ListByCourse(_ context.Context, courseID string) ([]*Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Assessment
	for _, id := range r.order {
		if a := r.assessments[id]; a.CourseID == courseID {
			out = append(out, cloneAssessment(a))
		}
	}
	return out, nil
}

func (r *InMemoryAssessmentRepository) CreateSubmission(_ context.Context, s *Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assessments[s.AssessmentID]; !ok {
		return ErrUnknownReference
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c := *s
	r.submissions = append(r.submissions, &c)
	return nil
}

func (r *InMemoryAssessmentRepository) ListSubmissions(_ context.Context, assessmentID, userID string) ([]*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Submission
	for i := len(r.submissions) - 1; i >= 0; i-- {
		s := r.submissions[i]
		if s.AssessmentID == assessmentID && s.UserID == userID {
			c := *s
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
