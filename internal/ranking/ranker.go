package ranking

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"time"
)

// DiversityInterval places a diversity slot at every fifth position.
const DiversityInterval = 5

// RandomSource supplies uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// globalSource draws from the math/rand/v2 top-level generator, which is safe for concurrent use.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Ranker orders feed candidates for a single user.
// A Ranker holds no per-call state and may be shared across goroutines as long as its
// RandomSource is safe for concurrent use (the default source is).
type Ranker struct {
	weights Weights
	rng     RandomSource
	now     func() time.Time
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithRandomSource replaces the jitter source. Tests pass a seeded generator to pin outcomes.
func WithRandomSource(src RandomSource) Option {
	return func(r *Ranker) {
		if src != nil {
			r.rng = src
		}
	}
}

// WithClock replaces the clock used for the recency signal.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRanker creates a Ranker with the given weights.
func NewRanker(weights Weights, opts ...Option) *Ranker {
	r := &Ranker{
		weights: weights,
		rng:     globalSource{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Weights returns the weight table used by this ranker.
func (r *Ranker) Weights() Weights {
	return r.weights
}

// Rank scores and diversifies items. The result has the same length as items.
func (r *Ranker) Rank(items []FeedItem, uctx UserContext) []FeedItem {
	ranked, _ := r.RankWithStats(items, uctx)
	return ranked
}

// RankWithStats is Rank plus a summary of the pass.
func (r *Ranker) RankWithStats(items []FeedItem, uctx UserContext) ([]FeedItem, Stats) {
	scored := r.Score(items, uctx)
	ranked, substitutions := r.diversify(scored)
	return ranked, Stats{
		Candidates:    len(items),
		Substitutions: substitutions,
	}
}

// Score returns copies of items annotated with a score. Inputs are not modified and no
// item is dropped. Every call draws fresh jitter per item.
func (r *Ranker) Score(items []FeedItem, uctx UserContext) []FeedItem {
	now := r.now()

	seen := make(map[string]struct{}, len(uctx.SeenCreators))
	for _, id := range uctx.SeenCreators {
		seen[id] = struct{}{}
	}

	scored := make([]FeedItem, len(items))
	for i, item := range items {
		scored[i] = item
		scored[i].Score = r.scoreItem(&item, uctx.InProgressCourses, seen, now)
	}
	return scored
}

// BaseScore is the weighted signal sum for one item, without jitter.
func (r *Ranker) BaseScore(item FeedItem, uctx UserContext) float64 {
	seen := make(map[string]struct{}, len(uctx.SeenCreators))
	for _, id := range uctx.SeenCreators {
		seen[id] = struct{}{}
	}
	return r.baseScore(&item, uctx.InProgressCourses, seen, r.now())
}

func (r *Ranker) scoreItem(item *FeedItem, inProgress []InProgressCourse, seen map[string]struct{}, now time.Time) float64 {
	return r.baseScore(item, inProgress, seen, now) + r.rng.Float64()*JitterMax
}

func (r *Ranker) baseScore(item *FeedItem, inProgress []InProgressCourse, seen map[string]struct{}, now time.Time) float64 {
	w := r.weights

	score := w.Progress * ProgressSignal(item.CourseID, inProgress)
	score += w.Engagement * EngagementSignal(item.CompletionRate)
	score += w.Virality * ViralitySignal(item.LikesCount, item.Views)
	if recency, ok := RecencySignal(item.CreatedAt, now); ok {
		score += w.Recency * recency
	}
	score += w.Discovery * DiscoverySignal(item.IsNewCreator, item.CourseID, seen)

	return score
}

// Diversify sorts scored items by descending score and injects a different course at every
// DiversityInterval-th position. The item displaced from a diversity slot is not reinserted,
// so individual items may be dropped or repeated while the length is preserved.
func (r *Ranker) Diversify(scored []FeedItem) []FeedItem {
	out, _ := r.diversify(scored)
	return out
}

func (r *Ranker) diversify(scored []FeedItem) ([]FeedItem, int) {
	sorted := slices.Clone(scored)
	slices.SortFunc(sorted, func(a, b FeedItem) int {
		return cmp.Compare(b.Score, a.Score)
	})

	out := make([]FeedItem, 0, len(sorted))
	seen := make(map[string]struct{})
	substitutions := 0

	for i := range sorted {
		if i%DiversityInterval == DiversityInterval-1 {
			if j := firstUnseen(sorted, seen, i); j >= 0 {
				out = append(out, sorted[j])
				seen[sorted[j].CourseID] = struct{}{}
				substitutions++
				continue
			}
		}
		out = append(out, sorted[i])
		seen[sorted[i].CourseID] = struct{}{}
	}

	return out, substitutions
}

// firstUnseen returns the index of the first item in sorted whose course has not been placed
// yet, excluding position skip. It returns -1 when every course has been seen.
func firstUnseen(sorted []FeedItem, seen map[string]struct{}, skip int) int {
	for j := range sorted {
		if j == skip {
			continue
		}
		if _, ok := seen[sorted[j].CourseID]; !ok {
			return j
		}
	}
	return -1
}
