package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of periodic maintenance. Run reports how many items it touched.
type Job struct {
	Type     string
	Interval time.Duration
	Timeout  time.Duration // per-run deadline; zero means Interval
	Run      func(ctx context.Context) (int64, error)
}

// RunOnce executes job a single time and records metrics.
func RunOnce(ctx context.Context, job Job, metrics *Metrics) (int64, error) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	items, err := job.Run(ctx)
	metrics.observe(job.Type, time.Since(start).Seconds(), items, err)

	if err != nil {
		slog.ErrorContext(ctx, "background job failed", "job_type", job.Type, "error", err)
		return 0, err
	}
	if items > 0 {
		slog.InfoContext(ctx, "background job completed", "job_type", job.Type, "items", items)
	}
	return items, nil
}

// RunPeriodic runs job immediately and then every Interval until ctx is done.
// It blocks and should typically be run in a goroutine.
func RunPeriodic(ctx context.Context, job Job, metrics *Metrics) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	_, _ = RunOnce(ctx, job, metrics)

	for {
		select {
		case <-ticker.C:
			_, _ = RunOnce(ctx, job, metrics)
		case <-ctx.Done():
			slog.Info("stopping background job", "job_type", job.Type)
			return
		}
	}
}

// Scheduler owns a set of periodic jobs.
type Scheduler struct {
	jobs    []Job
	metrics *Metrics
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler. metrics may be nil.
func NewScheduler(metrics *Metrics, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, metrics: metrics}
}

// Start launches every job in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			RunPeriodic(ctx, job, s.metrics)
		}(job)
	}
	slog.Info("background jobs started", "count", len(s.jobs))
}

// Stop cancels all jobs and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "store_error"
	}
}
