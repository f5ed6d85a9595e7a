// Package progress tracks how far each user has got through a course.
package progress

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Errors returned by progress operations.
var (
	ErrInvalidReelIndex = errors.New("reel index out of range")
	ErrUnknownReference = errors.New("unknown user or course")
)

// Progress is one user's position in one course.
type Progress struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	CourseID         string     `json:"courseId"`
	CurrentReelIndex int        `json:"currentReelIndex"`
	ReelCompletion   []int      `json:"reelCompletion"` // completed reel indexes in completion order
	CompletedAt      *time.Time `json:"completedAt"`
	LastAccessedAt   time.Time  `json:"lastAccessedAt"`
}

// Completed reports whether the whole course has been finished.
func (p *Progress) Completed() bool {
	return p.CompletedAt != nil
}

// Update describes a single progress report from a client.
type Update struct {
	UserID     string
	CourseID   string
	ReelIndex  int
	Completed  bool // the reel at ReelIndex was watched to the end
	TotalReels int
}

// apply folds u into p at now. A course counts as completed only on a report
// that completes a reel and brings the completed set up to TotalReels; any other
// report clears CompletedAt.
func apply(p *Progress, u Update, now time.Time) {
	if u.Completed && !slices.Contains(p.ReelCompletion, u.ReelIndex) {
		p.ReelCompletion = append(p.ReelCompletion, u.ReelIndex)
	}
	if u.Completed && len(p.ReelCompletion) >= u.TotalReels {
		p.CompletedAt = &now
	} else {
		p.CompletedAt = nil
	}
	p.CurrentReelIndex = u.ReelIndex
	p.LastAccessedAt = now
}

func validate(u Update) error {
	if u.ReelIndex < 0 || (u.TotalReels > 0 && u.ReelIndex >= u.TotalReels) {
		return ErrInvalidReelIndex
	}
	return nil
}

// ProgressRepository defines the interface for progress data operations.
type ProgressRepository interface {
	// Record creates the user's progress on first access and applies u.
	Record(ctx context.Context, u Update) (*Progress, error)

	ListByUser(ctx context.Context, userID string) ([]*Progress, error)

	// ListByCourse returns every user's progress on courseID.
	ListByCourse(ctx context.Context, courseID string) ([]*Progress, error)
}

// CompletionRates returns, per reel index, the fraction of records that completed
// that reel. Indexes outside [0, totalReels) are ignored. A nil map means there is
// no data for the course.
func CompletionRates(records []*Progress, totalReels int) map[int]float64 {
	if len(records) == 0 || totalReels <= 0 {
		return nil
	}

	counts := make([]int, totalReels)
	for _, p := range records {
		for _, idx := range p.ReelCompletion {
			if idx >= 0 && idx < totalReels {
				counts[idx]++
			}
		}
	}

	rates := make(map[int]float64, totalReels)
	for idx, n := range counts {
		rates[idx] = float64(n) / float64(len(records))
	}
	return rates
}
