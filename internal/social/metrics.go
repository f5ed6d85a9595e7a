package social

import "github.com/prometheus/client_golang/prometheus"

// MetricToggles counts social toggles by edge kind and resulting state.
const MetricToggles = "reeled_social_toggles_total"

// Edge kinds used as metric labels.
const (
	EdgeLike   = "like"
	EdgeSave   = "save"
	EdgeFollow = "follow"
)

// Metrics contains Prometheus metrics for social toggles.
type Metrics struct {
	toggles *prometheus.CounterVec
}

// NewMetrics creates social metrics. They are not registered.
func NewMetrics() *Metrics {
	return &Metrics{
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricToggles,
				Help: "Total social toggles by edge kind and resulting state (on/off)",
			},
			[]string{"edge", "state"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	return reg.Register(m.toggles)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.toggles}
}

func (m *Metrics) observeToggle(edge string, on bool) {
	if m == nil {
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	m.toggles.WithLabelValues(edge, state).Inc()
}
