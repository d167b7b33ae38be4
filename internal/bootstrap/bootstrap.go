package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	httpadapter "github.com/kirillkom/corpus-admin/internal/adapters/http"
	"github.com/kirillkom/corpus-admin/internal/config"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
	"github.com/kirillkom/corpus-admin/internal/core/usecase"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/audit"
	auditnats "github.com/kirillkom/corpus-admin/internal/infrastructure/audit/nats"
	auditpostgres "github.com/kirillkom/corpus-admin/internal/infrastructure/audit/postgres"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/corpusapi"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/resilience"
	"github.com/kirillkom/corpus-admin/internal/infrastructure/session"
	"github.com/kirillkom/corpus-admin/internal/observability/metrics"
)

const serviceName = "corpus-admin"

type App struct {
	Config config.Config

	API      *corpusapi.Client
	Sessions *session.Store
	Metrics  *metrics.AdminMetrics
	Router   *httpadapter.Router

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	var sessions *session.Store
	app.Metrics = metrics.NewAdminMetrics(serviceName, func() int {
		if sessions == nil {
			return 0
		}
		return sessions.Len()
	})

	breakerCfg := resilience.DefaultConfig()
	breakerCfg.BreakerEnabled = cfg.CorpusBreakerEnabled
	executor := resilience.NewExecutor(breakerCfg)

	app.API = corpusapi.NewWithOptions(cfg.CorpusAPIURL, corpusapi.Options{
		Timeout:            cfg.CorpusAPITimeout,
		ResilienceExecutor: executor,
		Observer:           app.Metrics,
	})

	ring := audit.NewRing(cfg.AuditRingCapacity)
	sinks := []ports.AuditSink{ring, app.Metrics}
	var auditLog ports.AuditLog = ring

	if cfg.AuditPostgresDSN != "" {
		db, repo, err := openAuditRepository(ctx, cfg.AuditPostgresDSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })
		sinks = append(sinks, repo)
		auditLog = repo
	}

	if cfg.AuditNATSURL != "" {
		publisher, err := auditnats.NewWithOptions(cfg.AuditNATSURL, cfg.AuditNATSSubject, auditnats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init audit publisher: %w", err)
		}
		app.closeFns = append(app.closeFns, publisher.Close)
		sinks = append(sinks, publisher)
	}

	auditSink := audit.NewFanout(sinks...)
	sessions = session.NewStore(func() *usecase.Workspace {
		return usecase.NewWorkspace(app.API, auditSink, cfg.MaxUploadBytes)
	}, cfg.SessionTTL, cfg.MaxSessions)
	app.Sessions = sessions
	app.closeFns = append(app.closeFns, sessions.Close)

	router, err := httpadapter.NewRouter(
		usecase.NewDashboardService(app.API),
		sessions,
		auditLog,
		app.Metrics,
		httpadapter.Options{
			MaxUploadBytes: cfg.MaxUploadBytes,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init router: %w", err)
	}
	app.Router = router

	slog.Info("bootstrap_complete",
		"corpus_api_url", cfg.CorpusAPIURL,
		"breaker_enabled", executor.Enabled(),
		"audit_postgres", cfg.AuditPostgresDSN != "",
		"audit_nats", cfg.AuditNATSURL != "",
	)
	return app, nil
}

func openAuditRepository(ctx context.Context, dsn string) (*sql.DB, *auditpostgres.AuditRepository, error) {
	db, err := auditpostgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit postgres: %w", err)
	}
	repo := auditpostgres.NewAuditRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return db, repo, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
