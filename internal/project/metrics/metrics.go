package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the project module.
// Tracks ledger movements, rejected mutations and roster changes.
type Metrics struct {
	UnitsBooked          *prometheus.CounterVec
	UnitsReleased        *prometheus.CounterVec
	LedgerRejections     *prometheus.CounterVec
	OfficerAssigned      prometheus.Counter
	OfficerRemoved       prometheus.Counter
	ProjectsCreated      prometheus.Counter
	EligibleListDuration prometheus.Histogram
	CacheFallbacks       prometheus.Counter
}

// New registers project metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers project metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UnitsBooked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bto_units_booked_total",
			Help: "Units booked by flat type",
		}, []string{"flat_type"}),
		UnitsReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bto_units_released_total",
			Help: "Units returned to availability by flat type",
		}, []string{"flat_type"}),
		LedgerRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bto_ledger_rejections_total",
			Help: "Ledger mutations refused by the project invariants",
		}, []string{"reason"}),
		OfficerAssigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "bto_officers_assigned_total",
			Help: "Officers added to a project roster",
		}),
		OfficerRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "bto_officers_removed_total",
			Help: "Officers removed from a project roster",
		}),
		ProjectsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bto_projects_created_total",
			Help: "Projects created",
		}),
		EligibleListDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bto_list_eligible_projects_duration_seconds",
			Help:    "Duration of eligibility fan-out across visible projects",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		CacheFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "bto_availability_cache_fallbacks_total",
			Help: "Availability reads served from the project store after a cache miss or error",
		}),
	}
}

func (m *Metrics) IncrementUnitsBooked(flatType string) {
	if m != nil {
		m.UnitsBooked.WithLabelValues(flatType).Inc()
	}
}

func (m *Metrics) IncrementUnitsReleased(flatType string) {
	if m != nil {
		m.UnitsReleased.WithLabelValues(flatType).Inc()
	}
}

// IncrementLedgerRejection records a refused mutation; reason is a short
// snake_case label such as "no_units_available".
func (m *Metrics) IncrementLedgerRejection(reason string) {
	if m != nil {
		m.LedgerRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementOfficerAssigned() {
	if m != nil {
		m.OfficerAssigned.Inc()
	}
}

func (m *Metrics) IncrementOfficerRemoved() {
	if m != nil {
		m.OfficerRemoved.Inc()
	}
}

func (m *Metrics) IncrementProjectsCreated() {
	if m != nil {
		m.ProjectsCreated.Inc()
	}
}

func (m *Metrics) IncrementCacheFallback() {
	if m != nil {
		m.CacheFallbacks.Inc()
	}
}

// ObserveListEligible records the duration of a ListEligibleProjects call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveListEligible(start time.Time) {
	if m != nil {
		m.EligibleListDuration.Observe(time.Since(start).Seconds())
	}
}
