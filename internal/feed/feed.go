// Package feed assembles a user's personalized reel feed from the course catalog,
// the user's progress and likes, and the ranking package.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/ranking"
	"github.com/onnwee/reeled/internal/tracing"
	"github.com/onnwee/reeled/internal/user"
)

// Defaults for Config.
const (
	DefaultPageSize         = 20
	DefaultNewCreatorWindow = 14 * 24 * time.Hour
)

// Config tunes feed assembly.
type Config struct {
	PageSize         int           // feed length returned to the client
	NewCreatorWindow time.Duration // creators younger than this get the discovery bonus
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.NewCreatorWindow <= 0 {
		c.NewCreatorWindow = DefaultNewCreatorWindow
	}
	return c
}

// CourseCatalog supplies the courses whose reels become feed candidates.
type CourseCatalog interface {
	ListPublic(ctx context.Context) ([]*course.Course, error)
	GetByID(ctx context.Context, id string) (*course.Course, error)
}

// CreatorDirectory resolves course creators.
type CreatorDirectory interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*user.User, error)
}

// ProgressStore reads learner progress.
type ProgressStore interface {
	ListByUser(ctx context.Context, userID string) ([]*progress.Progress, error)
	ListByCourse(ctx context.Context, courseID string) ([]*progress.Progress, error)
}

// LikeStore reads a user's liked reels.
type LikeStore interface {
	LikedReelIDs(ctx context.Context, userID string) ([]string, error)
}

// Sources groups the stores the feed reads from.
type Sources struct {
	Courses  CourseCatalog
	Creators CreatorDirectory
	Progress ProgressStore
	Likes    LikeStore
}

// Result is a ranked feed page plus the context it was ranked for.
type Result struct {
	Feed        []ranking.FeedItem  `json:"feed"`
	UserContext ranking.UserContext `json:"userContext"`
}

// Service builds feeds. It is safe for concurrent use.
type Service struct {
	ranker  *ranking.Ranker
	src     Sources
	cache   CandidateCache
	metrics *Metrics
	cfg     Config
	now     func() time.Time
}

// NewService creates a feed service. A nil cache disables candidate caching and
// metrics may be nil.
func NewService(ranker *ranking.Ranker, src Sources, cache CandidateCache, metrics *Metrics, cfg Config) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		ranker:  ranker,
		src:     src,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// GetFeed returns the first page of userID's ranked feed.
func (s *Service) GetFeed(ctx context.Context, userID string) (res *Result, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "feed.GetFeed", attribute.String("user.id", userID))
	defer func() { endSpan(err) }()

	s.metrics.incRequests()
	defer func() {
		if err != nil {
			s.metrics.incErrors()
		}
	}()

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	uctx, err := s.userContext(ctx, userID, candidates)
	if err != nil {
		return nil, err
	}

	liked := make(map[string]struct{}, len(uctx.LikedReels))
	for _, id := range uctx.LikedReels {
		liked[id] = struct{}{}
	}
	items := make([]ranking.FeedItem, len(candidates))
	copy(items, candidates)
	for i := range items {
		_, items[i].UserHasLiked = liked[items[i].ReelID]
	}

	start := time.Now()
	ranked, stats := s.ranker.RankWithStats(items, uctx)
	s.metrics.observeRank(time.Since(start), stats)

	if len(ranked) > s.cfg.PageSize {
		ranked = ranked[:s.cfg.PageSize]
	}

	tracing.SetAttributes(ctx,
		attribute.Int("feed.candidates", stats.Candidates),
		attribute.Int("feed.substitutions", stats.Substitutions),
		attribute.Int("feed.returned", len(ranked)),
	)
	return &Result{Feed: ranked, UserContext: uctx}, nil
}

// userContext builds the ranking snapshot for userID. Course lengths come from
// the candidate catalog and fall back to a lookup for courses not in it.
func (s *Service) userContext(ctx context.Context, userID string, candidates []ranking.FeedItem) (ranking.UserContext, error) {
	uctx := ranking.UserContext{
		UserID:            userID,
		InProgressCourses: []ranking.InProgressCourse{},
		CompletedCourses:  []string{},
		SeenCreators:      []string{},
		LikedReels:        []string{},
	}

	records, err := s.src.Progress.ListByUser(ctx, userID)
	if err != nil {
		return uctx, fmt.Errorf("load progress: %w", err)
	}

	totals := make(map[string]int)
	for _, item := range candidates {
		totals[item.CourseID]++
	}

	for _, p := range records {
		uctx.SeenCreators = append(uctx.SeenCreators, p.CourseID)
		if p.Completed() {
			uctx.CompletedCourses = append(uctx.CompletedCourses, p.CourseID)
			continue
		}

		total, ok := totals[p.CourseID]
		if !ok {
			c, err := s.src.Courses.GetByID(ctx, p.CourseID)
			if errors.Is(err, course.ErrCourseNotFound) {
				continue
			}
			if err != nil {
				return uctx, fmt.Errorf("load course %s: %w", p.CourseID, err)
			}
			total = len(c.Reels)
		}
		uctx.InProgressCourses = append(uctx.InProgressCourses, ranking.InProgressCourse{
			CourseID:         p.CourseID,
			CurrentReelIndex: p.CurrentReelIndex,
			TotalReels:       total,
		})
	}

	liked, err := s.src.Likes.LikedReelIDs(ctx, userID)
	if err != nil {
		return uctx, fmt.Errorf("load likes: %w", err)
	}
	uctx.LikedReels = append(uctx.LikedReels, liked...)

	return uctx, nil
}

// candidates returns the user-independent candidate list, from cache when possible.
func (s *Service) candidates(ctx context.Context) ([]ranking.FeedItem, error) {
	items, ok, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		s.metrics.observeCache(cacheError)
		slog.WarnContext(ctx, "feed candidate cache unavailable", "error", err)
	case ok:
		s.metrics.observeCache(cacheHit)
		return items, nil
	default:
		s.metrics.observeCache(cacheMiss)
	}

	items, err = s.buildCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, items); err != nil {
		slog.WarnContext(ctx, "failed to cache feed candidates", "error", err)
	}
	return items, nil
}

// buildCandidates turns every reel of every public course into a feed item,
// skipping reel ids already emitted.
func (s *Service) buildCandidates(ctx context.Context) ([]ranking.FeedItem, error) {
	courses, err := s.src.Courses.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	creatorIDs := make([]string, 0, len(courses))
	for _, c := range courses {
		creatorIDs = append(creatorIDs, c.CreatorID)
	}
	creators, err := s.src.Creators.GetByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("load creators: %w", err)
	}

	now := s.now()
	seen := make(map[string]struct{})
	items := make([]ranking.FeedItem, 0)
	for _, c := range courses {
		records, err := s.src.Progress.ListByCourse(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("load progress for course %s: %w", c.ID, err)
		}
		rates := progress.CompletionRates(records, len(c.Reels))
		creator := creators[c.CreatorID]

		for _, reel := range c.Reels {
			if _, dup := seen[reel.ID]; dup {
				continue
			}
			seen[reel.ID] = struct{}{}

			createdAt := reel.CreatedAt
			item := ranking.FeedItem{
				ReelID:     reel.ID,
				CourseID:   c.ID,
				Title:      reel.Title,
				MediaURL:   reel.MediaURL,
				LikesCount: reel.LikesCount,
				Views:      reel.Views,
				CreatedAt:  &createdAt,
			}
			if rates != nil {
				rate := rates[reel.Index]
				item.CompletionRate = &rate
			}
			if creator != nil {
				item.CreatorReputation = creator.Reputation
				item.IsNewCreator = now.Sub(creator.CreatedAt) < s.cfg.NewCreatorWindow
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// Invalidate drops cached candidates so the next feed sees catalog changes.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "failed to invalidate feed candidate cache", "error", err)
	}
}
