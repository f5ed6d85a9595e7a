package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/auth"
	"github.com/onnwee/reeled/internal/comment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/feed"
	"github.com/onnwee/reeled/internal/middleware"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/ranking"
	"github.com/onnwee/reeled/internal/seed"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/story"
	"github.com/onnwee/reeled/internal/user"
)

const testJWTSecret = "api-test-secret-0123456789abcdef"

// testEnv is a router over seeded in-memory stores.
type testEnv struct {
	handler     http.Handler
	users       *user.InMemoryUserRepository
	courses     *course.InMemoryCourseRepository
	social      *social.InMemorySocialRepository
	stories     *story.InMemoryStoryRepository
	progress    *progress.InMemoryProgressRepository
	assessments *assessment.InMemoryAssessmentRepository
}

func newTestEnv(t *testing.T, configure ...func(*RouterConfig)) *testEnv {
	t.Helper()

	env := &testEnv{
		users:       user.NewInMemoryUserRepository(),
		courses:     course.NewInMemoryCourseRepository(),
		social:      social.NewInMemorySocialRepository(),
		stories:     story.NewInMemoryStoryRepository(),
		progress:    progress.NewInMemoryProgressRepository(),
		assessments: assessment.NewInMemoryAssessmentRepository(),
	}
	if err := seed.Load(context.Background(), seed.Stores{
		Users:       env.users,
		Courses:     env.courses,
		Assessments: env.assessments,
	}); err != nil {
		t.Fatalf("seed.Load() error = %v", err)
	}

	ranker := ranking.NewRanker(ranking.DefaultWeights(), ranking.WithRandomSource(rand.New(rand.NewPCG(1, 2))))
	feedSvc := feed.NewService(ranker, feed.Sources{
		Courses:  env.courses,
		Creators: env.users,
		Progress: env.progress,
		Likes:    env.social,
	}, nil, nil, feed.Config{})

	cfg := RouterConfig{Metrics: middleware.NewMetrics()}
	for _, fn := range configure {
		fn(&cfg)
	}

	env.handler = NewRouter(Services{
		Users:       env.users,
		Courses:     env.courses,
		Social:      social.NewService(env.social, env.courses, env.users, nil),
		Comments:    comment.NewInMemoryCommentRepository(),
		Stories:     env.stories,
		Progress:    env.progress,
		Assessments: env.assessments,
		Grader:      assessment.NewService(env.assessments, nil),
		Feed:        feedSvc,
	}, cfg)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// firstCourse returns the first seeded public course.
func (e *testEnv) firstCourse(t *testing.T) *course.Course {
	t.Helper()
	courses, err := e.courses.ListPublic(context.Background())
	if err != nil || len(courses) == 0 {
		t.Fatalf("no seeded courses: %v", err)
	}
	return courses[0]
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response: %v, body: %s", err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if got := decode[ErrorResponse](t, rec).Error.Code; got != code {
		t.Errorf("expected error code %q, got %q", code, got)
	}
}

func TestRouter_Feed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/feed", nil)
	expectStatus(t, rec, http.StatusOK)

	res := decode[feed.Result](t, rec)
	if len(res.Feed) != 13 {
		t.Errorf("expected every seeded reel in the feed, got %d", len(res.Feed))
	}
	if res.UserContext.UserID != seed.DemoLearnerID {
		t.Errorf("expected default user %q, got %q", seed.DemoLearnerID, res.UserContext.UserID)
	}
	for i := range res.Feed {
		if res.Feed[i].ReelID == "" || res.Feed[i].CourseID == "" {
			t.Fatalf("feed item %d missing ids: %+v", i, res.Feed[i])
		}
	}
}

func TestRouter_FeedBearerIdentityWins(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTSecret)
	env := newTestEnv(t, func(c *RouterConfig) { c.TokenValidator = jwtService })

	token, err := jwtService.GenerateAccessToken(seed.DemoCreatorID, "sarahjohnson")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/feed?userId="+seed.DemoLearnerID, nil, "Authorization", "Bearer "+token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[feed.Result](t, rec).UserContext.UserID; got != seed.DemoCreatorID {
		t.Errorf("expected bearer user %q, got %q", seed.DemoCreatorID, got)
	}

	rec = env.do(t, http.MethodGet, "/api/feed", nil, "Authorization", "Bearer forged")
	expectErrorCode(t, rec, http.StatusUnauthorized, ErrCodeAuthFailed)
}

func TestRouter_FeedReflectsProgress(t *testing.T) {
	env := newTestEnv(t)
	c := env.firstCourse(t)

	rec := env.do(t, http.MethodPost, "/api/progress", map[string]any{
		"userId": seed.DemoLearnerID, "courseId": c.ID, "reelIndex": 1,
	})
	expectStatus(t, rec, http.StatusOK)

	res := decode[feed.Result](t, env.do(t, http.MethodGet, "/api/feed", nil))
	if len(res.UserContext.InProgressCourses) != 1 {
		t.Fatalf("expected one in-progress course, got %+v", res.UserContext.InProgressCourses)
	}
	got := res.UserContext.InProgressCourses[0]
	if got.CourseID != c.ID || got.CurrentReelIndex != 1 || got.TotalReels != len(c.Reels) {
		t.Errorf("unexpected in-progress course %+v", got)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	expectErrorCode(t, env.do(t, http.MethodGet, "/api/nope", nil), http.StatusNotFound, ErrCodeNotFound)
	expectErrorCode(t, env.do(t, http.MethodDelete, "/api/like", nil), http.StatusMethodNotAllowed, ErrCodeBadRequest)
}

func TestRouter_WriteRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *RouterConfig) {
		c.WriteLimit = middleware.RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	})
	reelID := env.firstCourse(t).Reels[0].ID

	body := map[string]string{"userId": seed.DemoLearnerID, "reelId": reelID}
	expectStatus(t, env.do(t, http.MethodPost, "/api/like", body), http.StatusOK)
	expectErrorCode(t, env.do(t, http.MethodPost, "/api/like", body), http.StatusTooManyRequests, ErrCodeRateLimited)

	// Reads are only subject to the global limit.
	expectStatus(t, env.do(t, http.MethodGet, "/api/feed", nil), http.StatusOK)
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[HealthResponse](t, rec).Status; got != "healthy" {
		t.Errorf("expected healthy, got %q", got)
	}

	rec = env.do(t, http.MethodGet, "/ready", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[HealthResponse](t, rec).Checks["database"]; got != "not_configured" {
		t.Errorf("expected database not_configured, got %q", got)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, func(c *RouterConfig) { c.AllowedOrigins = []string{"https://app.reeled.test"} })

	rec := env.do(t, http.MethodOptions, "/api/like", nil,
		"Origin", "https://app.reeled.test",
		"Access-Control-Request-Method", http.MethodPost,
	)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.reeled.test" {
		t.Errorf("expected allowed origin header, got %q", got)
	}
}
