// Package course provides courses, their ordered reels, and repositories for both.
package course

import (
	"context"
	"errors"
	"time"
)

// Repository errors.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrReelNotFound    = errors.New("reel not found")
	ErrCreatorNotFound = errors.New("creator not found")
	ErrNoReels         = errors.New("course must have at least one reel")
)

// Visibility controls whether a course is listed in the feed and search.
type Visibility string

// Visibility values.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// MaxSearchResults caps Search results.
const MaxSearchResults = 20

// Course is an ordered collection of reels published by a creator.
type Course struct {
	ID          string     `json:"id"`
	CreatorID   string     `json:"creatorId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Tags        string     `json:"tags"` // comma-separated
	Visibility  Visibility `json:"visibility"`
	Reels       []Reel     `json:"reels"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Reel is one short video within a course at a fixed position.
type Reel struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Index       int       `json:"index"`
	Title       string    `json:"title"`
	MediaURL    string    `json:"mediaUrl"`
	MicroAction string    `json:"microAction,omitempty"`
	Duration    int       `json:"duration"` // seconds
	LikesCount  int       `json:"likesCount"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CourseRepository defines the interface for course and reel data operations.
type CourseRepository interface {
	// Create stores c and its reels. Reels are indexed 0..n-1 in slice order.
	Create(ctx context.Context, c *Course) error

	// GetByID returns the course with reels ordered by index.
	GetByID(ctx context.Context, id string) (*Course, error)

	// List returns every course, newest first.
	List(ctx context.Context) ([]*Course, error)

	// ListPublic returns public courses in creation order. It is the feed's candidate catalog.
	ListPublic(ctx context.Context) ([]*Course, error)

	// ListByCreator returns a creator's courses, newest first.
	ListByCreator(ctx context.Context, creatorID string) ([]*Course, error)

	// Search matches public courses by title, description or tags, case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*Course, error)

	GetReel(ctx context.Context, reelID string) (*Reel, error)

	// AdjustReelLikes adds delta to a reel's like count, never going below zero.
	AdjustReelLikes(ctx context.Context, reelID string, delta int) error

	IncrementReelViews(ctx context.Context, reelID string) error
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxSearchResults {
		return MaxSearchResults
	}
	return limit
}

// prepare assigns ids, timestamps, default visibility and reel positions.
func prepare(c *Course, newID func() string, now time.Time) error {
	if len(c.Reels) == 0 {
		return ErrNoReels
	}
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.Visibility == "" {
		c.Visibility = VisibilityPublic
	}
	for i := range c.Reels {
		reel := &c.Reels[i]
		if reel.ID == "" {
			reel.ID = newID()
		}
		reel.CourseID = c.ID
		reel.Index = i
		if reel.CreatedAt.IsZero() {
			reel.CreatedAt = c.CreatedAt
		}
	}
	return nil
}
