package feed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onnwee/reeled/internal/ranking"
)

// Metric names as constants for consistency.
const (
	MetricFeedRequests      = "reeled_feed_requests_total"
	MetricFeedErrors        = "reeled_feed_errors_total"
	MetricFeedRankDuration  = "reeled_feed_rank_duration_seconds"
	MetricFeedCandidates    = "reeled_feed_candidates"
	MetricFeedSubstitutions = "reeled_feed_diversity_substitutions_total"
	MetricFeedCache         = "reeled_feed_cache_lookups_total"
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// Metrics contains Prometheus metrics for feed assembly.
// All operations are thread-safe.
type Metrics struct {
	requests      prometheus.Counter
	errors        prometheus.Counter
	rankDuration  prometheus.Histogram
	candidates    prometheus.Histogram
	substitutions prometheus.Counter
	cache         *prometheus.CounterVec
}

// NewMetrics creates feed metrics. They are not registered.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedRequests,
			Help: "Total number of feed requests",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedErrors,
			Help: "Total number of feed requests that failed",
		}),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricFeedRankDuration,
			Help:    "Time spent scoring and diversifying candidates in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricFeedCandidates,
			Help:    "Number of candidates ranked per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		substitutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedSubstitutions,
			Help: "Total diversity slots filled by a different course",
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFeedCache,
			Help: "Candidate cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// Register registers all metrics with the given registry.
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
		m.requests,
		m.errors,
		m.rankDuration,
		m.candidates,
		m.substitutions,
		m.cache,
	}
}

func (m *Metrics) incRequests() {
	if m != nil {
		m.requests.Inc()
	}
}

func (m *Metrics) incErrors() {
	if m != nil {
		m.errors.Inc()
	}
}

func (m *Metrics) observeRank(d time.Duration, stats ranking.Stats) {
	if m == nil {
		return
	}
	m.rankDuration.Observe(d.Seconds())
	m.candidates.Observe(float64(stats.Candidates))
	m.substitutions.Add(float64(stats.Substitutions))
}

func (m *Metrics) observeCache(result string) {
	if m != nil {
		m.cache.WithLabelValues(result).Inc()
	}
}
