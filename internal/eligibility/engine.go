package eligibility

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bto/internal/eligibility/metrics"
	"bto/internal/eligibility/ports"
	"bto/internal/project/models"
	"bto/pkg/requestcontext"
)

const tracerName = "bto/internal/eligibility"

// Engine decides whether a user may apply to a project.
//
// Evaluation short-circuits: the registration port is queried at most once,
// and only when the window and role checks pass. Any lookup failure denies.
type Engine struct {
	registrations ports.RegistrationQueryPort
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func NewEngine(registrations ports.RegistrationQueryPort, opts ...Option) *Engine {
	e := &Engine{
		registrations: registrations,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckEligibility reports whether user may apply to p.
func (e *Engine) CheckEligibility(ctx context.Context, p *models.Project, user models.User) bool {
	return e.Evaluate(ctx, p, user).Eligible
}

// Evaluate runs the rule chain and returns the verdict with its reason.
// "Now" is the request-scoped time from ctx.
func (e *Engine) Evaluate(ctx context.Context, p *models.Project, user models.User) Verdict {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "eligibility.Evaluate", trace.WithAttributes(
		attribute.String("project.id", p.ID()),
		attribute.String("user.role", string(user.Role)),
	))
	defer span.End()

	verdict := e.evaluate(ctx, span, p, user)

	span.SetAttributes(
		attribute.Bool("eligibility.eligible", verdict.Eligible),
		attribute.String("eligibility.reason", string(verdict.Reason)),
	)
	e.metrics.IncrementOutcome(string(verdict.Reason))
	e.metrics.ObserveCheckLatency(time.Since(start))
	e.logger.DebugContext(ctx, "eligibility evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", p.ID(),
		"eligible", verdict.Eligible,
		"reason", string(verdict.Reason),
	)
	return verdict
}

func (e *Engine) evaluate(ctx context.Context, span trace.Span, p *models.Project, user models.User) Verdict {
	if r := EvaluatePreconditions(p.IsOpenAt(requestcontext.Now(ctx)), user); r != ReasonNone {
		return deny(r)
	}

	lookupStart := time.Now()
	records, err := e.registrations.OfficerRegistrations(ctx, user.As(models.RoleOfficer))
	if err != nil {
		e.metrics.ObserveLookupLatency("error", time.Since(lookupStart))
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration lookup failed")
		e.logger.WarnContext(ctx, "registration lookup failed, denying eligibility",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", p.ID(),
			"error", err,
		)
		return deny(ReasonLookupFailed)
	}
	e.metrics.ObserveLookupLatency("ok", time.Since(lookupStart))

	if r := EvaluateRegistrations(p.ID(), records); r != ReasonNone {
		return deny(r)
	}

	return EvaluateDemographics(user, p.IsFlatTypeRegistered(models.FlatTypeTwoRoom))
}
