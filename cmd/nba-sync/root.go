package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/app"
	"github.com/riskibarqy/nba-fantasy-sync/internal/config"
	"github.com/riskibarqy/nba-fantasy-sync/internal/observability"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
	"github.com/spf13/cobra"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitConflict = 2
)

// errUsage marks flag and argument mistakes; they exit like a conflict.
var errUsage = errors.New("usage error")

type rootOptions struct {
	store    string
	logLevel string
	jsonOut  bool
}

// runtimeBuilder is swapped in tests to avoid ESPN and Postgres.
var runtimeBuilder = func(ctx context.Context, cfg config.Config, logger *logging.Logger) (*app.Runtime, error) {
	return app.Build(ctx, cfg, logger)
}

var loadConfig = config.Load

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "nba-sync",
		Short: "Incrementally sync NBA game logs and recompute fantasy points",
		Long: `nba-sync keeps a local store of NBA games, player box scores and
fantasy points in step with the upstream feed.

Each run resolves the days between the last synced date and the target date,
merges games and player logs, and recomputes fantasy points only for the
lines that changed.

Examples:
  # Sync up to today
  nba-sync run

  # Sync up to a fixed day and print the report as JSON
  nba-sync run --date 2024-01-02 --json

  # Natural dates work too
  nba-sync run --date yesterday

  # Inspect the store
  nba-sync state
  nba-sync runs --limit 5
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	root.PersistentFlags().StringVar(&opts.store, "store", "", "store driver override: postgres or memory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(newRunCmd(opts), newStateCmd(opts), newRunsCmd(opts))
	return root
}

func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, usecase.ErrConcurrentPass),
		errors.Is(err, errUsage),
		errors.Is(err, usecase.ErrInvalidInput):
		return exitConflict
	default:
		return exitFailure
	}
}

// setup loads config, applies flag overrides and builds the runtime.
func (o *rootOptions) setup(cmd *cobra.Command) (*app.Runtime, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load config: %w", errUsage, err)
	}
	if store := strings.ToLower(strings.TrimSpace(o.store)); store != "" {
		if store != config.StoreDriverPostgres && store != config.StoreDriverMemory {
			return nil, nil, fmt.Errorf("%w: --store must be %s or %s", errUsage, config.StoreDriverPostgres, config.StoreDriverMemory)
		}
		cfg.StoreDriver = store
	}
	if o.logLevel != "" {
		cfg.LogLevel = logging.ParseLevel(o.logLevel)
	}

	logger := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   logging.FormatConsole,
		FilePath: cfg.LogFile,
		Output:   cmd.ErrOrStderr(),
	})
	logging.SetDefault(logger)

	telemetry, err := observability.StartTelemetry(cfg, "cli", logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("start telemetry: %w", err)
	}

	rt, err := runtimeBuilder(cmd.Context(), cfg, logger)
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		_ = logger.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close runtime", "error", err)
		}
		// Flush spans from the pass before the process exits.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Warn("shutdown telemetry", "error", err)
		}
		_ = logger.Sync()
	}
	return rt, cleanup, nil
}
