package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/nba-fantasy-sync/internal/config"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Telemetry owns the process-wide exporters: Uptrace tracing, Pyroscope
// profiling and the pprof debug listener. Each one is optional.
type Telemetry struct {
	logger    *logging.Logger
	tracing   bool
	profiler  *pyroscope.Profiler
	pprof     *http.Server
	pprofAddr string
}

// StartTelemetry brings up whatever cfg enables. component tags profiles so
// the API and the CLI can share one Pyroscope application.
func StartTelemetry(cfg config.Config, component string, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger}

	t.startTracing(cfg)

	if err := t.startProfiling(cfg, component); err != nil {
		return nil, err
	}
	if err := t.startPprof(cfg); err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	return t, nil
}

func (t *Telemetry) startTracing(cfg config.Config) {
	switch {
	case !cfg.UptraceEnabled:
		t.logger.Debug("tracing disabled", "reason", "UPTRACE_ENABLED=false")
		return
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		t.logger.Warn("tracing disabled", "reason", "UPTRACE_DSN empty")
		return
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	t.tracing = true
	t.logger.Info("tracing enabled", "exporter", "uptrace", "logs", cfg.UptraceLogsEnabled)
}

func (t *Telemetry) startProfiling(cfg config.Config, component string) error {
	if !cfg.PyroscopeEnabled {
		t.logger.Debug("profiling disabled", "reason", "PYROSCOPE_ENABLED=false")
		return nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":       cfg.AppEnv,
			"version":   cfg.ServiceVersion,
			"component": component,
		},
		// A sync pass is mostly JSON decoding and SQL round trips.
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		return err
	}
	t.profiler = profiler
	t.logger.Info("profiling enabled", "server_address", cfg.PyroscopeServerAddress, "component", component)
	return nil
}

func (t *Telemetry) startPprof(cfg config.Config) error {
	if !cfg.PprofEnabled {
		return nil
	}

	ln, err := net.Listen("tcp", cfg.PprofAddr)
	if err != nil {
		return err
	}

	t.pprofAddr = ln.Addr().String()
	t.pprof = &http.Server{
		Handler:           pprofMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := t.pprof.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("pprof listener failed", "error", err)
		}
	}()
	t.logger.Info("pprof listening", "addr", t.pprofAddr)
	return nil
}

// PprofAddr is the bound debug address, or "" when pprof is off.
func (t *Telemetry) PprofAddr() string {
	return t.pprofAddr
}

// Shutdown flushes exporters in reverse start order.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.pprof != nil {
		errs = append(errs, t.pprof.Shutdown(ctx))
	}
	if t.profiler != nil {
		errs = append(errs, t.profiler.Stop())
	}
	if t.tracing {
		errs = append(errs, uptrace.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func pprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	return mux
}
