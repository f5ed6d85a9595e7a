// Package ranking provides the personalized feed ranker and its weight calibration.
package ranking

import (
	"math"
	"time"
)

// Sub-score scale shared by every signal before weighting.
const maxSignal = 100.0

// JitterMax is the exclusive upper bound of the random value added to every score.
const JitterMax = 5.0

// DefaultCompletionRate is used when an item carries no completion rate.
const DefaultCompletionRate = 0.5

// recencyDecayPerHour drains the recency sub-score to zero at 50 hours.
const recencyDecayPerHour = 2.0

// Weights defines the contribution of each signal to the final score.
// The default table sums to 1.0; that is a property of the values, not a runtime check.
type Weights struct {
	Progress   float64 `json:"progress"`   // Continuation of started courses (default: 0.35)
	Engagement float64 `json:"engagement"` // Completion rate (default: 0.25)
	Virality   float64 `json:"virality"`   // Like-to-view ratio (default: 0.25)
	Recency    float64 `json:"recency"`    // Content freshness (default: 0.10)
	Discovery  float64 `json:"discovery"`  // New-creator exposure (default: 0.05)
}

// DefaultWeights returns the default ranking weight table.
//
// score = progress*0.35 + engagement*0.25 + virality*0.25 + recency*0.10 + discovery*0.05 + jitter
//
// Each signal is a 0-100 sub-score, so the weighted sum tops out at 100 before jitter.
func DefaultWeights() Weights {
	return Weights{
		Progress:   0.35,
		Engagement: 0.25,
		Virality:   0.25,
		Recency:    0.10,
		Discovery:  0.05,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Progress + w.Engagement + w.Virality + w.Recency + w.Discovery
}

// ProgressSignal returns the full sub-score when the item's course is in progress for the
// user and has reels left to watch. It is a binary bonus, not proportional to progress.
func ProgressSignal(courseID string, inProgress []InProgressCourse) float64 {
	for _, p := range inProgress {
		if p.CourseID != courseID {
			continue
		}
		if p.CurrentReelIndex < p.TotalReels {
			return maxSignal
		}
		return 0
	}
	return 0
}

// EngagementSignal converts a completion rate into a sub-score.
// A nil rate falls back to DefaultCompletionRate.
func EngagementSignal(completionRate *float64) float64 {
	rate := DefaultCompletionRate
	if completionRate != nil {
		rate = *completionRate
	}
	return rate * maxSignal
}

// ViralitySignal converts likes and views into a sub-score capped at 100.
// Views are floored at 1 so items with no recorded views do not divide by zero.
func ViralitySignal(likes, views int) float64 {
	likeRatio := float64(likes) / float64(max(views, 1))
	return math.Min(likeRatio*maxSignal, maxSignal)
}

// RecencySignal returns a sub-score that decays linearly from 100 at creation to 0 at 50 hours.
// The second return value is false when the item has no timestamp; callers must then skip the
// recency term entirely rather than treat the item as old.
func RecencySignal(createdAt *time.Time, now time.Time) (float64, bool) {
	if createdAt == nil {
		return 0, false
	}
	ageInHours := now.Sub(*createdAt).Hours()
	return math.Max(0, maxSignal-ageInHours*recencyDecayPerHour), true
}

// DiscoverySignal returns the full sub-score for a new creator whose course id has not been seen.
// The seen set is keyed by course id.
func DiscoverySignal(isNewCreator bool, courseID string, seen map[string]struct{}) float64 {
	if !isNewCreator {
		return 0
	}
	if _, ok := seen[courseID]; ok {
		return 0
	}
	return maxSignal
}
