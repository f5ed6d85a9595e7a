// Package seed loads the demo creator, learner and starter courses.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/user"
)

// Demo account ids. DemoLearnerID is also the default feed user.
const (
	DemoCreatorID = "demo-creator"
	DemoLearnerID = "demo-user"
)

// Stores are the repositories the demo data is written to.
type Stores struct {
	Users       user.UserRepository
	Courses     course.CourseRepository
	Assessments assessment.AssessmentRepository
}

func ptr[T any](v T) *T { return &v }

// Users returns the demo accounts.
func Users() []*user.User {
	return []*user.User{
		{
			ID:         DemoCreatorID,
			Email:      "creator@reeled.com",
			Username:   "sarahjohnson",
			Name:       "Sarah Johnson",
			IsCreator:  true,
			Bio:        "Tech educator & developer 👩‍💻 | Teaching React, Python & Design",
			Avatar:     "https://api.dicebear.com/7.x/avataaars/svg?seed=sarah",
			Followers:  1250,
			Following:  340,
			Reputation: ptr(0.8),
		},
		{
			ID:        DemoLearnerID,
			Email:     "learner@reeled.com",
			Username:  "alexsmith",
			Name:      "Alex Smith",
			Bio:       "Learning something new every day 📚",
			Avatar:    "https://api.dicebear.com/7.x/avataaars/svg?seed=alex",
			Followers: 45,
			Following: 120,
		},
	}
}

type reelSpec struct {
	title, media, action string
	duration             int
}

func reels(specs ...reelSpec) []course.Reel {
	out := make([]course.Reel, len(specs))
	for i, s := range specs {
		out[i] = course.Reel{Title: s.title, MediaURL: s.media, MicroAction: s.action, Duration: s.duration}
	}
	return out
}

// Course is a demo course with its assessments.
type Course struct {
	Course      *course.Course
	Assessments []*assessment.Assessment
}

// Courses returns the starter courses, all published by the demo creator.
func Courses() []Course {
	return []Course{
		{
			Course: &course.Course{
				CreatorID:   DemoCreatorID,
				Title:       "Master React Hooks in 5 Minutes",
				Description: "Learn useState, useEffect, and custom hooks through bite-sized lessons",
				Tags:        "react,javascript,hooks",
				Reels: reels(
					reelSpec{"Introduction to React Hooks", "/videos/react-intro.mp4", "Think about a component you want to build", 45},
					reelSpec{"useState Explained", "/videos/react-usestate.mp4", "Create a counter component using useState", 60},
					reelSpec{"useEffect for Side Effects", "/videos/react-useeffect.mp4", "Add a document title update to your component", 75},
					reelSpec{"Custom Hooks Pattern", "/videos/react-custom.mp4", "Extract logic into a custom hook", 60},
					reelSpec{"Assessment: Build a Todo App", "/videos/react-assessment.mp4", "Complete the coding challenge", 90},
				),
			},
			Assessments: []*assessment.Assessment{{
				Type: assessment.TypeCode,
				Config: assessment.Config{
					Question:        "Create a custom hook called useTodo that manages todo state",
					RequiredKeyword: "useState",
				},
			}},
		},
		{
			Course: &course.Course{
				CreatorID:   DemoCreatorID,
				Title:       "Python Data Structures Crash Course",
				Description: "Master lists, dicts, sets, and tuples with practical examples",
				Tags:        "python,data-structures,beginner",
				Reels: reels(
					reelSpec{"Why Data Structures Matter", "/videos/python-intro.mp4", "List 3 data structures you already know", 40},
					reelSpec{"Lists: Your Dynamic Array", "/videos/python-lists.mp4", "Create a list and use append, pop, and slice", 70},
					reelSpec{"Dictionaries: Key-Value Power", "/videos/python-dicts.mp4", "Build a simple contact book with dict", 65},
					reelSpec{"Sets and Tuples", "/videos/python-sets.mp4", "Find unique items in a list using sets", 55},
				),
			},
		},
		{
			Course: &course.Course{
				CreatorID:   DemoCreatorID,
				Title:       "UI Design Principles in 3 Minutes",
				Description: "Learn contrast, alignment, repetition, and proximity",
				Tags:        "design,ui,principles",
				Reels: reels(
					reelSpec{"The 4 Core Principles", "/videos/design-intro.mp4", "Identify bad design in your daily apps", 50},
					reelSpec{"Contrast Creates Hierarchy", "/videos/design-contrast.mp4", "Redesign a button with better contrast", 60},
					reelSpec{"Alignment Brings Order", "/videos/design-alignment.mp4", "Fix alignment issues in a mockup", 55},
					reelSpec{"Repetition & Proximity", "/videos/design-final.mp4", "Apply all principles to a card design", 70},
				),
			},
		},
	}
}

// Load writes the demo data. It is a no-op when the demo creator already
// exists, so restarting against a seeded database is safe.
func Load(ctx context.Context, s Stores) error {
	if _, err := s.Users.GetByID(ctx, DemoCreatorID); err == nil {
		slog.InfoContext(ctx, "demo data already present, skipping seed")
		return nil
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("check demo creator: %w", err)
	}

	for _, u := range Users() {
		if err := s.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", u.Username, err)
		}
	}

	courses := Courses()
	for _, c := range courses {
		if err := s.Courses.Create(ctx, c.Course); err != nil {
			return fmt.Errorf("create course %q: %w", c.Course.Title, err)
		}
		for _, a := range c.Assessments {
			a.CourseID = c.Course.ID
			if err := s.Assessments.Create(ctx, a); err != nil {
				return fmt.Errorf("create assessment for %q: %w", c.Course.Title, err)
			}
		}
	}

	slog.InfoContext(ctx, "seeded demo data", "users", 2, "courses", len(courses))
	return nil
}
