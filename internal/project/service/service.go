package service

import (
	"context"
	"errors"
	"log/slog"

	"bto/internal/eligibility"
	projectmetrics "bto/internal/project/metrics"
	"bto/internal/project/models"
	"bto/internal/project/store/availability"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/audit"
	"bto/pkg/platform/sentinel"
)

// Store persists projects. Execute runs validate then mutate while holding the
// project's lock (mutex in memory, FOR UPDATE plus an advisory lock in
// Postgres). committed callbacks run once the change is stored, before the
// lock is released.
type Store interface {
	Create(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Execute(ctx context.Context, id string, validate func(*models.Project) error, mutate func(*models.Project), committed ...func(*models.Project)) (*models.Project, error)
}

// AvailabilityCache is a read-optimised copy of the unit ledger.
type AvailabilityCache interface {
	Put(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, projectID string) (map[models.FlatType]availability.Units, error)
	Invalidate(ctx context.Context, projectID string) error
}

type EligibilityEngine interface {
	Evaluate(ctx context.Context, p *models.Project, user models.User) eligibility.Verdict
}

const defaultEligibilityConcurrency = 8

// Service orchestrates project inventory, roster and eligibility operations.
type Service struct {
	store          Store
	engine         EligibilityEngine
	cache          AvailabilityCache
	notifier       models.BookingNotifier
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *projectmetrics.Metrics
	concurrency    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *projectmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAvailabilityCache enables the availability read path and keeps the cache
// current after every ledger change.
func WithAvailabilityCache(cache AvailabilityCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithBookingNotifier replaces the default notifier built from the service's
// own cache, metrics and audit publisher.
func WithBookingNotifier(n models.BookingNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithEligibilityConcurrency bounds the number of projects evaluated at once
// by ListEligibleProjects.
func WithEligibilityConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(store Store, engine EligibilityEngine, opts ...Option) *Service {
	s := &Service{
		store:       store,
		engine:      engine,
		logger:      slog.Default(),
		concurrency: defaultEligibilityConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewBookingNotifier(s.cache,
			WithNotifierLogger(s.logger),
			WithNotifierMetrics(s.metrics),
			WithNotifierAuditPublisher(s.auditPublisher),
		)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	audit.LogAudit(ctx, s.logger, s.auditPublisher, event, attributes...)
}

// refreshCache pushes p's ledger to the cache. Failures are logged and the
// stale entry dropped so the next read falls back to the store. Callers run it
// as an Execute committed callback so cache writes follow commit order.
func (s *Service) refreshCache(ctx context.Context, p *models.Project) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh availability cache",
			"project_id", p.ID(),
			"error", err,
		)
		_ = s.cache.Invalidate(ctx, p.ID())
	}
}

// primeCache writes the stored ledger of project id to the cache under the
// project lock.
func (s *Service) primeCache(ctx context.Context, id string) (*models.Project, error) {
	return s.store.Execute(ctx, id, nil, nil, func(p *models.Project) {
		s.refreshCache(ctx, p)
	})
}

var ledgerErrors = map[error]string{
	models.ErrNoUnitsAvailable: "no_units_available",
	models.ErrAtCapacity:       "at_capacity",
	models.ErrNoSlotsAvailable: "no_slots_available",
	models.ErrOfficerSlotsFull: "officer_slots_full",
	models.ErrAlreadyAssigned:  "already_assigned",
	models.ErrNotAssigned:      "not_assigned",
	models.ErrIneligible:       "ineligible",
}

// ledgerReason returns the metric label for a ledger sentinel in err's chain.
func ledgerReason(err error) (string, bool) {
	for sentinelErr, reason := range ledgerErrors {
		if errors.Is(err, sentinelErr) {
			return reason, true
		}
	}
	return "", false
}

// wrapProjectErr translates store and ledger errors into coded errors.
// Ledger sentinels stay reachable through errors.Is.
func wrapProjectErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	if _, ok := ledgerReason(err); ok {
		return dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "project not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "project id already exists")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, action+": request cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}

// rejectLedger records a refused mutation before the error is translated.
func (s *Service) rejectLedger(err error) {
	if reason, ok := ledgerReason(err); ok {
		s.metrics.IncrementLedgerRejection(reason)
	}
}
