package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := NewMetrics().Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := NewMetrics().Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name        string
		run         func(context.Context) (int64, error)
		wantItems   int64
		wantErr     bool
		wantStatus  string
		wantErrType string
	}{
		{
			name:       "success",
			run:        func(context.Context) (int64, error) { return 4, nil },
			wantItems:  4,
			wantStatus: StatusSuccess,
		},
		{
			name:        "store failure",
			run:         func(context.Context) (int64, error) { return 0, errors.New("connection reset") },
			wantErr:     true,
			wantStatus:  StatusFailure,
			wantErrType: "store_error",
		},
		{
			name: "timeout",
			run: func(ctx context.Context) (int64, error) {
				<-ctx.Done()
				return 0, ctx.Err()
			},
			wantErr:     true,
			wantStatus:  StatusFailure,
			wantErrType: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetrics()
			job := Job{Type: "test", Interval: time.Minute, Timeout: 10 * time.Millisecond, Run: tt.run}

			items, err := RunOnce(context.Background(), job, metrics)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunOnce() error = %v, wantErr %t", err, tt.wantErr)
			}
			if items != tt.wantItems {
				t.Errorf("items = %d, want %d", items, tt.wantItems)
			}
			if got := testutil.ToFloat64(metrics.jobsTotal.WithLabelValues("test", tt.wantStatus)); got != 1 {
				t.Errorf("expected 1 %s run, got %v", tt.wantStatus, got)
			}
			if tt.wantErrType != "" {
				if got := testutil.ToFloat64(metrics.jobErrors.WithLabelValues("test", tt.wantErrType)); got != 1 {
					t.Errorf("expected 1 %s error, got %v", tt.wantErrType, got)
				}
			} else if got := testutil.ToFloat64(metrics.jobItems.WithLabelValues("test")); got != float64(tt.wantItems) {
				t.Errorf("items metric = %v, want %d", got, tt.wantItems)
			}
		})
	}
}

func TestRunOnce_NilMetrics(t *testing.T) {
	job := Job{Type: "test", Run: func(context.Context) (int64, error) { return 1, nil }}
	if _, err := RunOnce(context.Background(), job, nil); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
}

func TestScheduler_RunsUntilStopped(t *testing.T) {
	var runs atomic.Int32
	job := Job{
		Type:     "tick",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) (int64, error) {
			runs.Add(1)
			return 0, nil
		},
	}

	s := NewScheduler(nil, job)
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job kept running after Stop")
	}
}

type fakePurger struct {
	deleted int64
	at      time.Time
}

func (p *fakePurger) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	p.at = now
	return p.deleted, nil
}

type fakeCleaner struct{ calls int }

func (c *fakeCleaner) Cleanup() { c.calls++ }

func TestMaintenanceJobs(t *testing.T) {
	purger := &fakePurger{deleted: 7}
	job := StoryExpiry(purger, 0)
	if job.Interval != DefaultStoryExpiryInterval || job.Type != JobTypeStoryExpiry {
		t.Errorf("unexpected story expiry job %+v", job)
	}
	items, err := RunOnce(context.Background(), job, nil)
	if err != nil || items != 7 {
		t.Errorf("RunOnce() = %d, %v; want 7, nil", items, err)
	}
	if purger.at.IsZero() || purger.at.Location() != time.UTC {
		t.Errorf("expected a UTC purge time, got %v", purger.at)
	}

	cleaner := &fakeCleaner{}
	job = RateLimitCleanup(cleaner, time.Second)
	if _, err := RunOnce(context.Background(), job, nil); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if cleaner.calls != 1 {
		t.Errorf("expected 1 cleanup call, got %d", cleaner.calls)
	}
}
