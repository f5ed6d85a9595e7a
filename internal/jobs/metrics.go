// Package jobs runs periodic background maintenance and records its metrics.
package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricBackgroundJobsTotal      = "reeled_background_jobs_total"
	MetricBackgroundJobsDuration   = "reeled_background_jobs_duration_seconds"
	MetricBackgroundJobErrorsTotal = "reeled_background_job_errors_total"
	MetricBackgroundJobItemsTotal  = "reeled_background_job_items_total"
)

// Job type constants for labeling.
const (
	JobTypeStoryExpiry      = "story_expiry"
	JobTypeRateLimitCleanup = "rate_limit_cleanup"
)

// Status constants for job completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains Prometheus metrics for background job operations.
// All operations are thread-safe.
type Metrics struct {
	jobsTotal    *prometheus.CounterVec
	jobsDuration *prometheus.HistogramVec
	jobErrors    *prometheus.CounterVec
	jobItems     *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBackgroundJobsTotal,
				Help: "Total number of background job executions by type and status",
			},
			[]string{"job_type", "status"},
		),
		jobsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricBackgroundJobsDuration,
				Help:    "Histogram of background job duration in seconds by job type",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
			[]string{"job_type"},
		),
		jobErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBackgroundJobErrorsTotal,
				Help: "Total number of background job errors by type and error type",
			},
			[]string{"job_type", "error_type"},
		),
		jobItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBackgroundJobItemsTotal,
				Help: "Total number of records removed or processed by background jobs",
			},
			[]string{"job_type"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.jobsTotal,
		m.jobsDuration,
		m.jobErrors,
		m.jobItems,
	}
}

// observe records one run. A nil receiver is a no-op.
func (m *Metrics) observe(jobType string, seconds float64, items int64, err error) {
	if m == nil {
		return
	}
	m.jobsDuration.WithLabelValues(jobType).Observe(seconds)
	if err != nil {
		m.jobsTotal.WithLabelValues(jobType, StatusFailure).Inc()
		m.jobErrors.WithLabelValues(jobType, errorType(err)).Inc()
		return
	}
	m.jobsTotal.WithLabelValues(jobType, StatusSuccess).Inc()
	m.jobItems.WithLabelValues(jobType).Add(float64(items))
}
