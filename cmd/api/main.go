// Package main is the entry point for the API server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/reeled/internal/api"
	"github.com/onnwee/reeled/internal/assessment"
	"github.com/onnwee/reeled/internal/auth"
	"github.com/onnwee/reeled/internal/comment"
	"github.com/onnwee/reeled/internal/config"
	"github.com/onnwee/reeled/internal/course"
	"github.com/onnwee/reeled/internal/db"
	"github.com/onnwee/reeled/internal/feed"
	"github.com/onnwee/reeled/internal/health"
	"github.com/onnwee/reeled/internal/jobs"
	"github.com/onnwee/reeled/internal/middleware"
	"github.com/onnwee/reeled/internal/progress"
	"github.com/onnwee/reeled/internal/ranking"
	"github.com/onnwee/reeled/internal/seed"
	"github.com/onnwee/reeled/internal/social"
	"github.com/onnwee/reeled/internal/story"
	"github.com/onnwee/reeled/internal/tracing"
	"github.com/onnwee/reeled/internal/user"
)

const serviceName = "reeled-api"

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Reeled API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.scheduler.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		exitCode = 1
	}
	a.close(shutdownCtx)

	logger.Info("server stopped")
	os.Exit(exitCode)
}

// app is the wired server: the HTTP handler, background jobs and the
// resources that must be released on shutdown.
type app struct {
	handler   http.Handler
	scheduler *jobs.Scheduler
	closers   []func(context.Context) error
	logger    *slog.Logger
}

func (a *app) close(ctx context.Context) {
	a.scheduler.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("shutdown step failed", "error", err)
		}
	}
}

// stores groups the repositories behind one storage backend.
type stores struct {
	users       user.UserRepository
	courses     course.CourseRepository
	social      social.SocialRepository
	comments    comment.CommentRepository
	stories     story.StoryRepository
	progress    progress.ProgressRepository
	assessments assessment.AssessmentRepository
}

func inMemoryStores() stores {
	return stores{
		users:       user.NewInMemoryUserRepository(),
		courses:     course.NewInMemoryCourseRepository(),
		social:      social.NewInMemorySocialRepository(),
		comments:    comment.NewInMemoryCommentRepository(),
		stories:     story.NewInMemoryStoryRepository(),
		progress:    progress.NewInMemoryProgressRepository(),
		assessments: assessment.NewInMemoryAssessmentRepository(),
	}
}

func postgresStores(conn *sql.DB) stores {
	return stores{
		users:       user.NewPostgresUserRepository(conn),
		courses:     course.NewPostgresCourseRepository(conn),
		social:      social.NewPostgresSocialRepository(conn),
		comments:    comment.NewPostgresCommentRepository(conn),
		stories:     story.NewPostgresStoryRepository(conn),
		progress:    progress.NewPostgresProgressRepository(conn),
		assessments: assessment.NewPostgresAssessmentRepository(conn),
	}
}

// newApp builds every dependency from cfg. On error, resources opened so far
// are released before returning.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{logger: logger}
	defer func() {
		if err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for i := len(a.closers) - 1; i >= 0; i-- {
				_ = a.closers[i](closeCtx)
			}
		}
	}()

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.OTLPExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	var healthCfg api.HealthHandlersConfig

	st := inMemoryStores()
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return conn.Close() })
		st = postgresStores(conn)
		healthCfg.DBChecker = health.NewDBChecker(conn)
		logger.Info("using postgres storage")
	} else {
		logger.Info("using in-memory storage")
	}

	if cfg.SeedDemoData {
		if err := seed.Load(ctx, seed.Stores{Users: st.users, Courses: st.courses, Assessments: st.assessments}); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		logger.Info("demo data loaded")
	}

	var (
		rateLimitStore middleware.RateLimitStore
		candidateCache feed.CandidateCache
		jobList        []jobs.Job
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		rateLimitStore = middleware.NewRedisRateLimitStore(client)
		if cfg.FeedCacheTTL > 0 {
			candidateCache = feed.NewRedisCandidateCache(client, cfg.FeedCacheTTL)
		}
		healthCfg.RedisChecker = health.NewRedisChecker(client)
	} else {
		mem := middleware.NewInMemoryRateLimitStore()
		rateLimitStore = mem
		jobList = append(jobList, jobs.RateLimitCleanup(mem, 0))
	}
	jobList = append(jobList, jobs.StoryExpiry(st.stories, 0))

	// A bad calibration file is logged and the defaults are used.
	weights, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		logger.Warn("ranking calibration ignored", "error", err)
	}
	ranker := ranking.NewRanker(weights)

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	feedMetrics := feed.NewMetrics()
	socialMetrics := social.NewMetrics()
	assessmentMetrics := assessment.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	for _, r := range []interface {
		Register(prometheus.Registerer) error
	}{
		httpMetrics, feedMetrics, socialMetrics, assessmentMetrics, jobMetrics,
	} {
		if err := r.Register(registry); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	healthCfg.MetricsEnabled = true
	if rs, ok := rateLimitStore.(*middleware.RedisRateLimitStore); ok {
		rs.WithMetrics(httpMetrics)
	}

	feedSvc := feed.NewService(ranker, feed.Sources{
		Courses:  st.courses,
		Creators: st.users,
		Progress: st.progress,
		Likes:    st.social,
	}, candidateCache, feedMetrics, feed.Config{
		PageSize:         cfg.FeedPageSize,
		NewCreatorWindow: cfg.FeedNewCreatorWindow,
	})

	routerCfg := api.RouterConfig{
		ServiceName:    serviceName,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RateLimitStore: rateLimitStore,
		GlobalLimit:    middleware.RateLimitConfig{RequestsPerWindow: cfg.RateLimitPerMinute, WindowDuration: time.Minute},
		Health:         healthCfg,
	}
	// Assigned only when set so the interface stays nil rather than holding a nil pointer.
	if cfg.JWTSecret != "" {
		routerCfg.TokenValidator = auth.NewJWTService(cfg.JWTSecret)
	}

	a.handler = api.NewRouter(api.Services{
		Users:       st.users,
		Courses:     st.courses,
		Social:      social.NewService(st.social, st.courses, st.users, socialMetrics),
		Comments:    st.comments,
		Stories:     st.stories,
		Progress:    st.progress,
		Assessments: st.assessments,
		Grader:      assessment.NewService(st.assessments, assessmentMetrics),
		Feed:        feedSvc,
		StoryTTL:    cfg.StoryTTL,
	}, routerCfg)
	a.scheduler = jobs.NewScheduler(jobMetrics, jobList...)

	return a, nil
}
