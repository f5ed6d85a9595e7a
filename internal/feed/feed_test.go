package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/ranking"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/user"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type zeroSource struct{}

func (zeroSource) Float64() float64 { return 0 }

type fixture struct {
	users    *user.InMemoryUserRepository
	courses  *countingCatalog
	progress *progress.InMemoryProgressRepository
	social   *social.InMemorySocialRepository
}

// countingCatalog counts catalog loads so cache behaviour is observable.
type countingCatalog struct {
	*course.InMemoryCourseRepository
	listCalls int
}

func (c *countingCatalog) ListPublic(ctx context.Context) ([]*course.Course, error) {
	c.listCalls++
	return c.InMemoryCourseRepository.ListPublic(ctx)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    user.NewInMemoryUserRepository(),
		courses:  &countingCatalog{InMemoryCourseRepository: course.NewInMemoryCourseRepository()},
		progress: progress.NewInMemoryProgressRepository(),
		social:   social.NewInMemorySocialRepository(),
	}
	ctx := context.Background()

	for _, u := range []*user.User{
		{ID: "veteran", Email: "v@reeled.test", Username: "veteran", CreatedAt: testNow.AddDate(-1, 0, 0)},
		{ID: "newbie", Email: "n@reeled.test", Username: "newbie", CreatedAt: testNow.AddDate(0, 0, -3)},
		{ID: "alex", Email: "a@reeled.test", Username: "alex", CreatedAt: testNow.AddDate(0, -1, 0)},
	} {
		if err := f.users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	return f
}

func (f *fixture) addCourse(t *testing.T, id, creatorID string, reels int, visibility course.Visibility) {
	t.Helper()
	c := &course.Course{ID: id, CreatorID: creatorID, Title: id, Visibility: visibility, CreatedAt: testNow.Add(-time.Hour)}
	for i := 0; i < reels; i++ {
		c.Reels = append(c.Reels, course.Reel{
			ID:       fmt.Sprintf("%s-%d", id, i),
			Title:    fmt.Sprintf("%s reel %d", id, i),
			MediaURL: fmt.Sprintf("/videos/%s-%d.mp4", id, i),
		})
	}
	if err := f.courses.Create(context.Background(), c); err != nil {
		t.Fatalf("create course: %v", err)
	}
}

func (f *fixture) service(cache CandidateCache, metrics *Metrics, cfg Config) *Service {
	ranker := ranking.NewRanker(ranking.DefaultWeights(),
		ranking.WithRandomSource(zeroSource{}),
		ranking.WithClock(func() time.Time { return testNow }))
	svc := NewService(ranker, Sources{
		Courses:  f.courses,
		Creators: f.users,
		Progress: f.progress,
		Likes:    f.social,
	}, cache, metrics, cfg)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestGetFeed_TruncatesToPageSize(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 6; i++ {
		f.addCourse(t, fmt.Sprintf("c%d", i), "veteran", 5, course.VisibilityPublic)
	}

	res, err := f.service(nil, nil, Config{}).GetFeed(context.Background(), "alex")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(res.Feed) != DefaultPageSize {
		t.Errorf("expected %d items, got %d", DefaultPageSize, len(res.Feed))
	}

	res, _ = f.service(nil, nil, Config{PageSize: 7}).GetFeed(context.Background(), "alex")
	if len(res.Feed) != 7 {
		t.Errorf("expected 7 items, got %d", len(res.Feed))
	}
}

func TestGetFeed_ExcludesPrivateCourses(t *testing.T) {
	f := newFixture(t)
	f.addCourse(t, "public", "veteran", 2, course.VisibilityPublic)
	f.addCourse(t, "private", "veteran", 3, course.VisibilityPrivate)

	res, err := f.service(nil, nil, Config{}).GetFeed(context.Background(), "alex")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(res.Feed) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Feed))
	}
	for _, item := range res.Feed {
		if item.CourseID != "public" {
			t.Errorf("unexpected course %s in feed", item.CourseID)
		}
	}
}

func TestGetFeed_UserContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCourse(t, "react", "veteran", 3, course.VisibilityPublic)
	f.addCourse(t, "python", "veteran", 2, course.VisibilityPublic)
	f.addCourse(t, "drafts", "veteran", 4, course.VisibilityPrivate)

	record := func(courseID string, idx int, completed bool, total int) {
		t.Helper()
		if _, err := f.progress.Record(ctx, progress.Update{
			UserID: "alex", CourseID: courseID, ReelIndex: idx, Completed: completed, TotalReels: total,
		}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	record("react", 1, false, 3)
	record("python", 0, true, 2)
	record("python", 1, true, 2)
	record("drafts", 2, false, 4)
	if _, err := f.social.ToggleLike(ctx, "alex", "react-0"); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	res, err := f.service(nil, nil, Config{}).GetFeed(ctx, "alex")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	uctx := res.UserContext

	totals := map[string]int{}
	for _, c := range uctx.InProgressCourses {
		totals[c.CourseID] = c.TotalReels
	}
	if totals["react"] != 3 || totals["drafts"] != 4 || len(totals) != 2 {
		t.Errorf("unexpected in-progress courses %+v", uctx.InProgressCourses)
	}
	if len(uctx.CompletedCourses) != 1 || uctx.CompletedCourses[0] != "python" {
		t.Errorf("unexpected completed courses %v", uctx.CompletedCourses)
	}
	if len(uctx.SeenCreators) != 3 {
		t.Errorf("expected every started course to be seen, got %v", uctx.SeenCreators)
	}
	if len(uctx.LikedReels) != 1 || uctx.LikedReels[0] != "react-0" {
		t.Errorf("unexpected liked reels %v", uctx.LikedReels)
	}

	for _, item := range res.Feed {
		if got, want := item.UserHasLiked, item.ReelID == "react-0"; got != want {
			t.Errorf("%s: UserHasLiked = %t, want %t", item.ReelID, got, want)
		}
	}
}

func TestGetFeed_EmptyContextSerializesAsArrays(t *testing.T) {
	f := newFixture(t)

	res, err := f.service(nil, nil, Config{}).GetFeed(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}

	body, _ := json.Marshal(res)
	want := `{"feed":[],"userContext":{"userId":"nobody","inProgressCourses":[],"completedCourses":[],"seenCreators":[],"likedReels":[]}}`
	if string(body) != want {
		t.Errorf("got %s\nwant %s", body, want)
	}
}

func TestBuildCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCourse(t, "established", "veteran", 2, course.VisibilityPublic)
	f.addCourse(t, "fresh", "newbie", 2, course.VisibilityPublic)

	for _, u := range []progress.Update{
		{UserID: "alex", CourseID: "established", ReelIndex: 0, Completed: true, TotalReels: 2},
		{UserID: "veteran", CourseID: "established", ReelIndex: 0, Completed: false, TotalReels: 2},
	} {
		if _, err := f.progress.Record(ctx, u); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	items, err := f.service(nil, nil, Config{}).buildCandidates(ctx)
	if err != nil {
		t.Fatalf("buildCandidates() error = %v", err)
	}
	byID := map[string]ranking.FeedItem{}
	for _, item := range items {
		byID[item.ReelID] = item
	}

	tests := []struct {
		reelID   string
		wantRate *float64
		wantNew  bool
	}{
		{"established-0", ptr(0.5), false},
		{"established-1", ptr(0.0), false},
		{"fresh-0", nil, true},
		{"fresh-1", nil, true},
	}
	for _, tt := range tests {
		item, ok := byID[tt.reelID]
		if !ok {
			t.Fatalf("missing candidate %s", tt.reelID)
		}
		switch {
		case tt.wantRate == nil && item.CompletionRate != nil:
			t.Errorf("%s: expected no completion rate, got %v", tt.reelID, *item.CompletionRate)
		case tt.wantRate != nil && (item.CompletionRate == nil || *item.CompletionRate != *tt.wantRate):
			t.Errorf("%s: CompletionRate = %v, want %v", tt.reelID, item.CompletionRate, *tt.wantRate)
		}
		if item.IsNewCreator != tt.wantNew {
			t.Errorf("%s: IsNewCreator = %t, want %t", tt.reelID, item.IsNewCreator, tt.wantNew)
		}
		if item.CreatedAt == nil {
			t.Errorf("%s: expected CreatedAt", tt.reelID)
		}
	}
}

func ptr[T any](v T) *T { return &v }

// memoryCache is a CandidateCache test double.
type memoryCache struct {
	items  []ranking.FeedItem
	getErr error
	sets   int
}

func (c *memoryCache) Get(context.Context) ([]ranking.FeedItem, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	return c.items, c.items != nil, nil
}

func (c *memoryCache) Set(_ context.Context, items []ranking.FeedItem) error {
	c.items = items
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.items = nil
	return nil
}

func TestGetFeed_CandidateCache(t *testing.T) {
	f := newFixture(t)
	f.addCourse(t, "react", "veteran", 3, course.VisibilityPublic)

	cache := &memoryCache{}
	metrics := NewMetrics()
	svc := f.service(cache, metrics, Config{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.GetFeed(ctx, "alex"); err != nil {
			t.Fatalf("GetFeed() error = %v", err)
		}
	}
	if f.courses.listCalls != 1 {
		t.Errorf("expected catalog to load once, loaded %d times", f.courses.listCalls)
	}
	if got := testutil.ToFloat64(metrics.cache.WithLabelValues(cacheHit)); got != 2 {
		t.Errorf("expected 2 cache hits, got %v", got)
	}

	svc.Invalidate(ctx)
	_, _ = svc.GetFeed(ctx, "alex")
	if f.courses.listCalls != 2 {
		t.Errorf("expected a reload after invalidation, loaded %d times", f.courses.listCalls)
	}
}

func TestGetFeed_CacheErrorFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.addCourse(t, "react", "veteran", 3, course.VisibilityPublic)

	metrics := NewMetrics()
	cache := &memoryCache{getErr: errors.New("connection refused")}
	res, err := f.service(cache, metrics, Config{}).GetFeed(context.Background(), "alex")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(res.Feed) != 3 {
		t.Errorf("expected 3 items, got %d", len(res.Feed))
	}
	if got := testutil.ToFloat64(metrics.cache.WithLabelValues(cacheError)); got != 1 {
		t.Errorf("expected 1 cache error, got %v", got)
	}
}

type failingProgress struct{ progress.ProgressRepository }

func (failingProgress) ListByUser(context.Context, string) ([]*progress.Progress, error) {
	return nil, errors.New("db down")
}

func (failingProgress) ListByCourse(context.Context, string) ([]*progress.Progress, error) {
	return nil, nil
}

func TestGetFeed_StoreErrorCounted(t *testing.T) {
	f := newFixture(t)
	metrics := NewMetrics()
	svc := f.service(nil, metrics, Config{})
	svc.src.Progress = failingProgress{}

	if _, err := svc.GetFeed(context.Background(), "alex"); err == nil {
		t.Fatal("expected an error")
	}
	if got := testutil.ToFloat64(metrics.errors); got != 1 {
		t.Errorf("expected 1 error recorded, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.requests); got != 1 {
		t.Errorf("expected 1 request recorded, got %v", got)
	}
}

func TestGetFeed_DiversityRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCourse(t, "react", "veteran", 5, course.VisibilityPublic)
	f.addCourse(t, "python", "veteran", 1, course.VisibilityPublic)

	// Progress on react lifts all of its reels above python's.
	if _, err := f.progress.Record(ctx, progress.Update{UserID: "alex", CourseID: "react", ReelIndex: 0, TotalReels: 5}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	metrics := NewMetrics()
	res, err := f.service(nil, metrics, Config{}).GetFeed(ctx, "alex")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if len(res.Feed) != 6 {
		t.Fatalf("expected 6 items, got %d", len(res.Feed))
	}
	if res.Feed[4].CourseID != "python" {
		t.Errorf("expected python at the diversity slot, got %s", res.Feed[4].CourseID)
	}
	if got := testutil.ToFloat64(metrics.substitutions); got != 1 {
		t.Errorf("expected 1 substitution, got %v", got)
	}
}
