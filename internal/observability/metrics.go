package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

const metricsNamespace = "nba_sync"

// SyncMetrics records sync passes on a private registry. It implements
// usecase.SyncMetrics.
type SyncMetrics struct {
	registry *prometheus.Registry

	passes           *prometheus.CounterVec
	passDuration     *prometheus.HistogramVec
	daysProcessed    prometheus.Counter
	gamesMerged      prometheus.Counter
	logsUpdated      prometheus.Counter
	scoresRecomputed prometheus.Counter
	inconsistencies  prometheus.Counter
	pendingDays      prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

var _ usecase.SyncMetrics = (*SyncMetrics)(nil)

func NewSyncMetrics() *SyncMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &SyncMetrics{
		registry: registry,
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "passes_total",
			Help:      "Sync passes by outcome.",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a sync pass.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),
		daysProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "days_processed_total",
			Help:      "Frontier days committed.",
		}),
		gamesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_merged_total",
			Help:      "Games inserted or updated.",
		}),
		logsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logs_updated_total",
			Help:      "Player game logs inserted or overwritten.",
		}),
		scoresRecomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scores_recomputed_total",
			Help:      "Fantasy point records written.",
		}),
		inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inconsistencies_total",
			Help:      "Rows skipped for inconsistent references.",
		}),
		pendingDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_days",
			Help:      "Days holding the sync state back after the last pass.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pass.",
		}),
	}
	registry.MustRegister(
		m.passes, m.passDuration,
		m.daysProcessed, m.gamesMerged, m.logsUpdated, m.scoresRecomputed, m.inconsistencies,
		m.pendingDays, m.lastSuccess,
	)
	return m
}

func (m *SyncMetrics) ObservePass(report usecase.SyncReport) {
	outcome := string(report.Outcome)
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.WithLabelValues(outcome).Observe(report.Duration().Seconds())
	m.daysProcessed.Add(float64(report.DaysProcessed))
	m.gamesMerged.Add(float64(report.GamesMerged))
	m.logsUpdated.Add(float64(report.LogsUpdated))
	m.scoresRecomputed.Add(float64(report.ScoresRecomputed))
	m.inconsistencies.Add(float64(report.Inconsistencies))
	if report.Outcome == usecase.SyncOutcomeRejected {
		return
	}
	m.pendingDays.Set(float64(len(report.PendingDays)))
	if report.Succeeded() && !report.FinishedAt.IsZero() {
		m.lastSuccess.Set(float64(report.FinishedAt.Unix()))
	}
}

func (m *SyncMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *SyncMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// FanOut delivers each pass report to every non-nil observer.
func FanOut(observers ...usecase.SyncMetrics) usecase.SyncMetrics {
	out := make(fanOut, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type fanOut []usecase.SyncMetrics

func (f fanOut) ObservePass(report usecase.SyncReport) {
	for _, o := range f {
		o.ObservePass(report)
	}
}
