package service

import (
	"context"
	"log/slog"

	projectmetrics "bto/internal/project/metrics"
	"bto/internal/project/models"
	"bto/pkg/platform/audit"
)

// BookingNotifier receives the domain's post-booking notification. It
// refreshes the availability cache, counts the booking and emits an audit
// event. Failures are logged and never reach the booking caller.
type BookingNotifier struct {
	cache     AvailabilityCache
	logger    *slog.Logger
	metrics   *projectmetrics.Metrics
	publisher audit.Publisher
}

type NotifierOption func(*BookingNotifier)

func WithNotifierLogger(logger *slog.Logger) NotifierOption {
	return func(n *BookingNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func WithNotifierMetrics(m *projectmetrics.Metrics) NotifierOption {
	return func(n *BookingNotifier) {
		n.metrics = m
	}
}

func WithNotifierAuditPublisher(publisher audit.Publisher) NotifierOption {
	return func(n *BookingNotifier) {
		n.publisher = publisher
	}
}

// NewBookingNotifier builds a notifier. cache may be nil.
func NewBookingNotifier(cache AvailabilityCache, opts ...NotifierOption) *BookingNotifier {
	n := &BookingNotifier{cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *BookingNotifier) UpdateProjectUnitsAfterBooking(ctx context.Context, p *models.Project, flatType models.FlatType) {
	if n.cache != nil {
		if err := n.cache.Put(ctx, p); err != nil {
			n.logger.WarnContext(ctx, "failed to update availability after booking",
				"project_id", p.ID(),
				"flat_type", string(flatType),
				"error", err,
			)
			_ = n.cache.Invalidate(ctx, p.ID())
		}
	}
	n.metrics.IncrementUnitsBooked(string(flatType))
	audit.LogAudit(ctx, n.logger, n.publisher, audit.EventUnitBooked,
		"project_id", p.ID(),
		"flat_type", string(flatType),
		"available", p.AvailableUnitsByType(flatType),
	)
}
