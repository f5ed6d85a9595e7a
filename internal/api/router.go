package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/comment"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/middleware"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/story"
	"github.com/onnwee/reeled/internal/user"
)

// HealthRequestsPerMinute bounds /health and /ready per client IP.
const HealthRequestsPerMinute = 60

// Services are the stores and services behind the HTTP handlers.
type Services struct {
	Users       user.UserRepository
	Courses     course.CourseRepository
	Social      *social.Service
	Comments    comment.CommentRepository
	Stories     story.StoryRepository
	Progress    progress.ProgressRepository
	Assessments assessment.AssessmentRepository
	Grader      AssessmentGrader
	Feed        interface {
		FeedSource
		FeedInvalidator
	}
	StoryTTL time.Duration
}

// RouterConfig holds the cross-cutting pieces of the HTTP stack.
type RouterConfig struct {
	ServiceName    string
	Logger         *slog.Logger
	AllowedOrigins []string
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler // served at /metrics when set

	// TokenValidator enables bearer identity; nil serves every request anonymously.
	TokenValidator middleware.TokenValidator

	RateLimitStore middleware.RateLimitStore
	GlobalLimit    middleware.RateLimitConfig
	WriteLimit     middleware.RateLimitConfig
	SearchLimit    middleware.RateLimitConfig

	Health HealthHandlersConfig
}

func (c RouterConfig) withDefaults() RouterConfig {
	if c.ServiceName == "" {
		c.ServiceName = "reeled-api"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.Metrics == nil {
		c.Metrics = middleware.NewMetrics()
	}
	if c.RateLimitStore == nil {
		c.RateLimitStore = middleware.NewInMemoryRateLimitStore()
	}
	if c.GlobalLimit.Validate() != nil {
		c.GlobalLimit = middleware.DefaultGlobalLimit()
	}
	if c.WriteLimit.Validate() != nil {
		c.WriteLimit = middleware.DefaultWriteLimit()
	}
	if c.SearchLimit.Validate() != nil {
		c.SearchLimit = middleware.DefaultSearchLimit()
	}
	return c
}

// NewRouter wires every handler onto a chi router behind the shared middleware stack.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	cfg = cfg.withDefaults()

	feedH := NewFeedHandlers(svc.Feed)
	courseH := NewCourseHandlers(svc.Courses, svc.Users, svc.Assessments, svc.Feed)
	socialH := NewSocialHandlers(svc.Social, svc.Courses, svc.Users)
	commentH := NewCommentHandlers(svc.Comments, svc.Courses, svc.Users)
	storyH := NewStoryHandlers(svc.Stories, svc.Social.Repository(), svc.Users, svc.StoryTTL)
	progressH := NewProgressHandlers(svc.Progress, svc.Courses, svc.Users)
	assessmentH := NewAssessmentHandlers(svc.Grader, svc.Users)
	searchH := NewSearchHandlers(svc.Users, svc.Courses)
	profileH := NewProfileHandlers(svc.Users, svc.Courses, svc.Social.Repository())
	healthH := NewHealthHandlers(cfg.Health)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.HTTPMetrics(cfg.Metrics))

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(HealthRequestsPerMinute, time.Minute))
		r.Get("/health", healthH.Health)
		r.Get("/ready", healthH.Ready)
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	writeLimit := middleware.RateLimiter(cfg.RateLimitStore, cfg.WriteLimit,
		middleware.ScopedKeyFunc("write", middleware.UserKeyFunc()), cfg.Metrics)
	searchLimit := middleware.RateLimiter(cfg.RateLimitStore, cfg.SearchLimit,
		middleware.ScopedKeyFunc("search", middleware.UserKeyFunc()), cfg.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerIdentity(cfg.TokenValidator))
		r.Use(middleware.RateLimiter(cfg.RateLimitStore, cfg.GlobalLimit, middleware.UserKeyFunc(), cfg.Metrics))

		r.Get("/feed", feedH.GetFeed)

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courseH.ListCourses)
			r.With(writeLimit).Post("/", courseH.CreateCourse)
			r.Get("/{id}", courseH.GetCourse)
		})
		r.Get("/course", courseH.GetCourse)

		r.Get("/like", socialH.GetLike)
		r.With(writeLimit).Post("/like", socialH.ToggleLike)
		r.Get("/follow", socialH.GetFollow)
		r.With(writeLimit).Post("/follow", socialH.ToggleFollow)
		r.Get("/save", socialH.ListSaved)
		r.With(writeLimit).Post("/save", socialH.ToggleSave)

		r.Get("/comments", commentH.ListComments)
		r.With(writeLimit).Post("/comments", commentH.CreateComment)

		r.Get("/stories", storyH.ListStories)
		r.With(writeLimit).Post("/stories", storyH.CreateStory)
		r.With(writeLimit).Patch("/stories", storyH.ViewStory)

		r.Get("/progress", progressH.ListProgress)
		r.With(writeLimit).Post("/progress", progressH.RecordProgress)

		r.With(writeLimit).Post("/assessments/submit", assessmentH.Submit)

		r.With(searchLimit).Get("/search", searchH.Search)
		r.Get("/profile/{username}", profileH.GetProfile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	})

	return r
}
