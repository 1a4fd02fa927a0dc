package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-fantasy-sync/external/espn"
	"github.com/riskibarqy/nba-fantasy-sync/internal/config"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	cacherepo "github.com/riskibarqy/nba-fantasy-sync/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/nba-fantasy-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nba-fantasy-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/nba-fantasy-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/nba-fantasy-sync/internal/observability"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/cache"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

// Runtime is the wired sync engine shared by the API and the CLI.
type Runtime struct {
	Config       config.Config
	Logger       *logging.Logger
	Orchestrator *usecase.SyncOrchestrator
	Queries      *usecase.QueryService
	Metrics      *observability.SyncMetrics

	closers []func() error
}

type Option func(*buildOptions)

type buildOptions struct {
	source usecase.GameSource
	db     *sqlx.DB
	clock  func() time.Time
}

// WithGameSource replaces the ESPN client.
func WithGameSource(source usecase.GameSource) Option {
	return func(o *buildOptions) {
		o.source = source
	}
}

// WithDB reuses an open handle instead of dialing cfg.DBURL. The caller
// keeps ownership.
func WithDB(db *sqlx.DB) Option {
	return func(o *buildOptions) {
		o.db = db
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) {
		o.clock = now
	}
}

func Build(ctx context.Context, cfg config.Config, logger *logging.Logger, opts ...Option) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}

	ruleSets, err := config.LoadRuleSets(cfg.ScoringRulesFile)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Logger: logger}

	var (
		store usecase.SyncStore
		repos usecase.SyncRepositories
		runs  syncstate.RunRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memory.NewStore()
		store, repos, runs = mem, mem.Repositories(), mem.Runs()
		logger.Warn("using in-memory store; synced data is lost on exit")
	default:
		db := options.db
		if db == nil {
			db, err = openDB(ctx, cfg)
			if err != nil {
				return nil, err
			}
			rt.closers = append(rt.closers, db.Close)
		}
		pg := postgres.NewStore(db)
		store, repos, runs = pg, pg.Repositories(), pg.Runs()
	}

	source := options.source
	if source == nil {
		source = espn.NewClient(espn.ClientConfig{
			BaseURL:        cfg.ESPNBaseURL,
			Timeout:        cfg.ESPNTimeout,
			MaxRetries:     cfg.ESPNMaxRetries,
			Logger:         logger.With("component", "espn"),
			CircuitBreaker: cfg.ESPNCircuit,
		})
	}

	var observers []usecase.SyncMetrics
	if cfg.MetricsEnabled {
		rt.Metrics = observability.NewSyncMetrics()
		observers = append(observers, rt.Metrics)
	}

	queryRepos := repos
	if cfg.CacheEnabled {
		readCache := cache.NewStore(cfg.CacheTTL)
		queryRepos = cacherepo.ReadRepositories(repos, readCache)
		observers = append(observers, cacherepo.Invalidator(readCache))
	}

	syncOpts := []usecase.SyncOption{
		usecase.WithRunRepository(runs),
		usecase.WithSyncMetrics(observability.FanOut(observers...)),
	}
	if options.clock != nil {
		syncOpts = append(syncOpts, usecase.WithClock(options.clock))
	}

	rt.Orchestrator = usecase.NewSyncOrchestrator(store, source, usecase.SyncConfig{
		SeasonStart:  cfg.SeasonStart,
		FetchWorkers: cfg.SyncFetchWorkers,
		GameWorkers:  cfg.SyncGameWorkers,
		FetchTimeout: cfg.SyncFetchTimeout,
		PassTimeout:  cfg.SyncPassTimeout,
		RuleSets:     ruleSets,
	}, logger.With("component", "sync"), syncOpts...)
	rt.Queries = usecase.NewQueryService(queryRepos, runs, ruleSets, logger)

	logger.Info("runtime ready",
		"store", cfg.StoreDriver,
		"season_start", cfg.SeasonStart.Format(time.DateOnly),
		"rule_sets", len(ruleSets),
		"cache_enabled", cfg.CacheEnabled,
		"metrics_enabled", cfg.MetricsEnabled,
	)
	return rt, nil
}

func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func NewHTTPServer(rt *Runtime) (*http.Server, error) {
	cfg := rt.Config
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var metrics http.Handler
	if rt.Metrics != nil {
		metrics = rt.Metrics.Handler()
	}

	handler := httpapi.NewHandler(rt.Queries, rt.Orchestrator, rt.Logger)
	router := httpapi.NewRouter(handler, rt.Logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken, metrics)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}, nil
}
