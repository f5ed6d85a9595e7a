package seed

import (
	"context"
	"testing"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/user"
)

func newStores() Stores {
	return Stores{
		Users:       user.NewInMemoryUserRepository(),
		Courses:     course.NewInMemoryCourseRepository(),
		Assessments: assessment.NewInMemoryAssessmentRepository(),
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := newStores()

	if err := Load(ctx, s); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	learner, err := s.Users.GetByUsername(ctx, "alexsmith")
	if err != nil || learner.ID != DemoLearnerID {
		t.Fatalf("expected demo learner, got %+v, %v", learner, err)
	}

	courses, _ := s.Courses.ListByCreator(ctx, DemoCreatorID)
	if len(courses) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(courses))
	}

	reelCounts := map[string]int{}
	var reactID string
	for _, c := range courses {
		reelCounts[c.Title] = len(c.Reels)
		if c.Tags == "react,javascript,hooks" {
			reactID = c.ID
		}
	}
	if reelCounts["Master React Hooks in 5 Minutes"] != 5 || reelCounts["UI Design Principles in 3 Minutes"] != 4 {
		t.Errorf("unexpected reel counts %v", reelCounts)
	}

	assessments, _ := s.Assessments.ListByCourse(ctx, reactID)
	if len(assessments) != 1 || assessments[0].Config.RequiredKeyword != "useState" {
		t.Errorf("expected the useTodo assessment on the React course, got %+v", assessments)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newStores()

	for i := 0; i < 2; i++ {
		if err := Load(ctx, s); err != nil {
			t.Fatalf("Load() run %d error = %v", i+1, err)
		}
	}

	courses, _ := s.Courses.List(ctx)
	if len(courses) != 3 {
		t.Errorf("expected 3 courses after reseeding, got %d", len(courses))
	}
}
