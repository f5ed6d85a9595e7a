package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricSubmissionsTotal = "reeled_assessment_submissions_total"
	MetricScore            = "reeled_assessment_score"
)

// Metrics counts graded submissions.
type Metrics struct {
	submissions *prometheus.CounterVec
	score       *prometheus.HistogramVec
}

// NewMetrics creates assessment metrics. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSubmissionsTotal,
				Help: "Graded assessment submissions by type and outcome",
			},
			[]string{"type", "passed"},
		),
		score: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricScore,
				Help:    "Distribution of assessment scores",
				Buckets: []float64{0, 25, 50, 70, 75, 90, 100},
			},
			[]string{"type"},
		),
	}
}

// Register registers the collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector owned by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.submissions, m.score}
}

func (m *Metrics) observe(t Type, s *Submission) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(t), fmt.Sprint(s.Passed())).Inc()
	m.score.WithLabelValues(string(t)).Observe(float64(s.Score))
}

// Service grades and stores submissions.
type Service struct {
	repo    AssessmentRepository
	metrics *Metrics
	now     func() time.Time
}

// NewService creates an assessment service. metrics may be nil.
func NewService(repo AssessmentRepository, metrics *Metrics) *Service {
	return &Service{repo: repo, metrics: metrics, now: time.Now}
}

// Submit grades answer for assessmentID and persists the submission.
func (s *Service) Submit(ctx context.Context, assessmentID, userID, answer string) (*Submission, error) {
	a, err := s.repo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	result := Grade(a, answer)
	sub := &Submission{
		ID:           uuid.NewString(),
		AssessmentID: a.ID,
		UserID:       userID,
		Answer:       answer,
		Score:        result.Score,
		Feedback:     result.Feedback,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	s.metrics.observe(a.Type, sub)
	return sub, nil
}
