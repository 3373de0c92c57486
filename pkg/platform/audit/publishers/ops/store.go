// Package ops guards an external audit sink.
//
// Operations-category events (project edits, unit adjustments) may be sampled
// down; allocation and staffing events always pass. While the sink keeps
// failing, a circuit breaker drops events instead of stalling callers.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "bto/pkg/platform/audit"
)

// ErrCircuitOpen is returned for events dropped while the sink is unhealthy.
var ErrCircuitOpen = errors.New("audit sink circuit open")

type Store struct {
	next    audit.Store
	breaker *CircuitBreaker
	sampler *Sampler
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*Store)

// WithOperationsSampleRate keeps only a fraction of operations-category events.
func WithOperationsSampleRate(rate float64) Option {
	return func(s *Store) {
		s.sampler = NewSampler(rate)
	}
}

func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *Store) {
		s.breaker = NewCircuitBreaker(threshold, cooldown)
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(next audit.Store, opts ...Option) *Store {
	s := &Store{
		next:    next,
		breaker: NewCircuitBreaker(5, 30*time.Second),
		sampler: NewSampler(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append implements audit.Store.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	if category == audit.CategoryOperations && !s.sampler.Keep(event.Action) {
		s.metrics.incSampled()
		return nil
	}
	if !s.breaker.Allow() {
		s.metrics.incCircuitDropped()
		return ErrCircuitOpen
	}

	if err := s.next.Append(ctx, event); err != nil {
		s.metrics.incFailure()
		open := s.breaker.RecordFailure()
		s.metrics.setOpen(open)
		if open && s.logger != nil {
			s.logger.WarnContext(ctx, "audit sink failing, circuit open",
				"action", event.Action,
				"error", err,
			)
		}
		return err
	}
	s.breaker.RecordSuccess()
	s.metrics.setOpen(false)
	s.metrics.incDelivered()
	return nil
}
