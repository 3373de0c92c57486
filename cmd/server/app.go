package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bto/internal/eligibility"
	"bto/internal/eligibility/adapters"
	eligibilitymetrics "bto/internal/eligibility/metrics"
	projecthandler "bto/internal/project/handler"
	projectmetrics "bto/internal/project/metrics"
	projectservice "bto/internal/project/service"
	"bto/internal/project/store/availability"
	projectstore "bto/internal/project/store/project"
	"bto/internal/platform/config"
	httpmetrics "bto/internal/platform/metrics"
	"bto/internal/platform/middleware"
	"bto/internal/platform/postgres"
	"bto/internal/platform/redis"
	registrationhandler "bto/internal/registration/handler"
	registrationservice "bto/internal/registration/service"
	registrationstore "bto/internal/registration/store"
	"bto/pkg/platform/audit"
	"bto/pkg/platform/audit/publisher"
	kafkaaudit "bto/pkg/platform/audit/publishers/kafka"
	"bto/pkg/platform/audit/publishers/ops"
	auditmemory "bto/pkg/platform/audit/store/memory"
	auditpostgres "bto/pkg/platform/audit/store/postgres"
	"bto/pkg/platform/httputil"
	"bto/pkg/platform/middleware/metadata"
	"bto/pkg/platform/middleware/requesttime"
)

// registrationStore backs both the registration service and the eligibility
// engine's officer lookup. The engine cannot read through the service, which
// itself depends on the project service built around the engine.
type registrationStore interface {
	registrationservice.Store
	adapters.RegistrationLister
}

var (
	_ registrationStore = (*registrationstore.InMemory)(nil)
	_ registrationStore = (*registrationstore.PostgresStore)(nil)
)

// app holds the wired router and everything that must be closed on shutdown.
type app struct {
	router  http.Handler
	storage string
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{storage: "memory"}

	var (
		projects      projectservice.Store = projectstore.NewInMemory()
		registrations registrationStore    = registrationstore.NewInMemory()
		auditStore    audit.Store          = auditmemory.NewInMemoryStore()
		health        []func(context.Context) error
	)

	if cfg.Database.URL != "" {
		db, pool, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() }, pool.Close)
		projects = projectstore.NewPostgres(db)
		registrations = registrationstore.NewPostgres(pool)
		auditStore = auditpostgres.New(db)
		health = append(health, db.PingContext, pool.Ping)
		a.storage = "postgres"
	}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := kafkaaudit.New(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Audit.Topic, "error", err)
		}
		a.closers = append(a.closers, sink.Close)
		auditStore = ops.New(sink,
			ops.WithOperationsSampleRate(cfg.Audit.OperationsSampleRate),
			ops.WithMetrics(ops.NewMetrics()),
			ops.WithLogger(log),
		)
		health = append(health, sink.Ping)
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	a.closers = append(a.closers, auditPublisher.Close)

	pm := projectmetrics.New()
	opts := []projectservice.Option{
		projectservice.WithLogger(log),
		projectservice.WithAuditPublisher(auditPublisher),
		projectservice.WithMetrics(pm),
		projectservice.WithEligibilityConcurrency(cfg.EligibilityConcurrency),
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		opts = append(opts, projectservice.WithAvailabilityCache(
			availability.NewRedis(redisClient.Client, availability.WithTTL(cfg.Redis.CacheTTL)),
		))
		health = append(health, redisClient.Health)
	}

	engine := eligibility.NewEngine(adapters.NewRegistrationAdapter(registrations),
		eligibility.WithLogger(log),
		eligibility.WithMetrics(eligibilitymetrics.New()),
	)
	projectSvc := projectservice.New(projects, engine, opts...)
	registrationSvc := registrationservice.New(registrations, projectSvc,
		registrationservice.WithLogger(log),
		registrationservice.WithAuditPublisher(auditPublisher),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Actor)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpmetrics.New()))

	r.Get("/health", healthHandler(health))
	r.Handle("/metrics", promhttp.Handler())
	projecthandler.New(projectSvc, log).Register(r)
	registrationhandler.New(registrationSvc, log).Register(r)

	a.router = r
	return a, nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, *pgxpool.Pool, error) {
	pgCfg := postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	db, err := postgres.Open(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	pool, err := postgres.OpenPool(ctx, pgCfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, pool, nil
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthHandler(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var errs []error
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status: "unavailable",
				Error:  fmt.Sprintf("%d dependency check(s) failed", len(errs)),
			})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
