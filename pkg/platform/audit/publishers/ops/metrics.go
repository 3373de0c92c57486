package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks what the guarded audit sink does with each event.
type Metrics struct {
	Delivered           prometheus.Counter
	Sampled             prometheus.Counter
	CircuitDropped      prometheus.Counter
	DeliveryFailures    prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Name: "bto_audit_delivered_total",
			Help: "Audit events handed to the sink successfully",
		}),
		Sampled: f.NewCounter(prometheus.CounterOpts{
			Name: "bto_audit_sampled_out_total",
			Help: "Operations audit events dropped by sampling",
		}),
		CircuitDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "bto_audit_circuit_dropped_total",
			Help: "Audit events dropped while the circuit breaker was open",
		}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "bto_audit_delivery_failures_total",
			Help: "Audit events the sink failed to accept",
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "bto_audit_circuit_breaker_open",
			Help: "1 while the audit sink circuit breaker is open",
		}),
	}
}

func (m *Metrics) incDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}

func (m *Metrics) incSampled() {
	if m != nil {
		m.Sampled.Inc()
	}
}

func (m *Metrics) incCircuitDropped() {
	if m != nil {
		m.CircuitDropped.Inc()
	}
}

func (m *Metrics) incFailure() {
	if m != nil {
		m.DeliveryFailures.Inc()
	}
}

func (m *Metrics) setOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
		return
	}
	m.CircuitBreakerState.Set(0)
}
