package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for eligibility checks.
type Metrics struct {
	// Verdicts by reason ("eligible", "window_closed", ...)
	Outcomes *prometheus.CounterVec

	// Registration lookup latency by result ("ok", "error")
	LookupLatency *prometheus.HistogramVec

	// End-to-end check latency
	CheckLatency prometheus.Histogram
}

// New registers eligibility metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers eligibility metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bto_eligibility_outcomes_total",
			Help: "Eligibility verdicts by reason",
		}, []string{"reason"}),

		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bto_eligibility_registration_lookup_duration_seconds",
			Help:    "Duration of officer registration lookups during eligibility checks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"result"}),

		CheckLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bto_eligibility_check_duration_seconds",
			Help:    "Duration of a full eligibility check",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementOutcome(reason string) {
	if m != nil {
		m.Outcomes.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveLookupLatency(result string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveCheckLatency(d time.Duration) {
	if m != nil {
		m.CheckLatency.Observe(d.Seconds())
	}
}
