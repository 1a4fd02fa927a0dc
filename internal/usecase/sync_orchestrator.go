package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/id"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SyncPhase string

const (
	PhaseIdle              SyncPhase = "idle"
	PhaseResolvingFrontier SyncPhase = "resolving_frontier"
	PhaseMerging           SyncPhase = "merging"
	PhaseRecomputing       SyncPhase = "recomputing"
	PhaseCommitted         SyncPhase = "committed"
)

type SyncConfig struct {
	SeasonStart time.Time
	// FetchWorkers bounds how many frontier days are fetched concurrently.
	FetchWorkers int
	// GameWorkers bounds concurrent box-score fetches within one day.
	GameWorkers  int
	FetchTimeout time.Duration
	PassTimeout  time.Duration
	RuleSets     []scoring.RuleSet
}

func (c SyncConfig) normalize() SyncConfig {
	if c.FetchWorkers < 1 {
		c.FetchWorkers = 4
	}
	if c.GameWorkers < 1 {
		c.GameWorkers = 4
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 20 * time.Second
	}
	if len(c.RuleSets) == 0 {
		c.RuleSets = scoring.DefaultRuleSets()
	}
	return c
}

// SyncMetrics receives one observation per finished pass.
type SyncMetrics interface {
	ObservePass(report SyncReport)
}

type noopSyncMetrics struct{}

func (noopSyncMetrics) ObservePass(SyncReport) {}

type noopRunRepository struct{}

func (noopRunRepository) Record(context.Context, syncstate.Run) error { return nil }
func (noopRunRepository) ListRecent(context.Context, int) ([]syncstate.Run, error) {
	return nil, nil
}

// SyncOrchestrator runs incremental sync passes. At most one pass runs at a
// time per process, and the store lock extends that across processes.
type SyncOrchestrator struct {
	store        SyncStore
	source       GameSource
	merger       *Merger
	recalculator *FantasyPointsRecalculator
	tracker      *DeltaTracker
	runs         syncstate.RunRepository
	ids          id.Generator
	metrics      SyncMetrics
	cfg          SyncConfig
	guard        resilience.Guard
	phase        atomic.Value
	logger       *logging.Logger
	now          func() time.Time
}

type SyncOption func(*SyncOrchestrator)

func WithRunRepository(runs syncstate.RunRepository) SyncOption {
	return func(o *SyncOrchestrator) {
		if runs != nil {
			o.runs = runs
		}
	}
}

func WithSyncMetrics(metrics SyncMetrics) SyncOption {
	return func(o *SyncOrchestrator) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

func WithIDGenerator(ids id.Generator) SyncOption {
	return func(o *SyncOrchestrator) {
		if ids != nil {
			o.ids = ids
		}
	}
}

func WithClock(now func() time.Time) SyncOption {
	return func(o *SyncOrchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewSyncOrchestrator(
	store SyncStore,
	source GameSource,
	cfg SyncConfig,
	logger *logging.Logger,
	opts ...SyncOption,
) *SyncOrchestrator {
	if logger == nil {
		logger = logging.Default()
	}

	o := &SyncOrchestrator{
		store:        store,
		source:       source,
		merger:       NewMerger(logger),
		recalculator: NewFantasyPointsRecalculator(logger),
		tracker:      NewDeltaTracker(),
		runs:         noopRunRepository{},
		ids:          id.NewPrefixedGenerator("sync"),
		metrics:      noopSyncMetrics{},
		cfg:          cfg.normalize(),
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.merger.now = o.now
	o.recalculator.now = o.now
	o.phase.Store(PhaseIdle)
	return o
}

func (o *SyncOrchestrator) Phase() SyncPhase {
	return o.phase.Load().(SyncPhase)
}

func (o *SyncOrchestrator) RuleSets() []scoring.RuleSet {
	return scoring.SortRuleSets(o.cfg.RuleSets)
}

// Sync runs one pass up to and including currentDate; a zero date means
// today. Each frontier day is merged, recomputed and committed in its own
// transaction, in order, and SyncState advances with it. A failure stops
// the pass and leaves later days for the next run.
func (o *SyncOrchestrator) Sync(ctx context.Context, currentDate time.Time) (SyncReport, error) {
	if currentDate.IsZero() {
		currentDate = o.now()
	}
	currentDate = game.Day(currentDate)

	ctx, span := startUsecaseSpan(ctx, "usecase.SyncOrchestrator.Sync", attribute.String("current_date", formatDay(currentDate)))
	defer span.End()

	report := SyncReport{
		CurrentDate: formatDay(currentDate),
		StartedAt:   o.now().UTC(),
		currentDay:  currentDate,
	}
	runID, err := o.ids.NewID()
	if err != nil {
		return o.finish(ctx, report, fmt.Errorf("%w: generate run id: %w", ErrDependencyUnavailable, err))
	}
	report.RunID = runID

	release, ok := o.guard.TryAcquire()
	if !ok {
		return o.finish(ctx, report, fmt.Errorf("%w: pass running in this process", ErrConcurrentPass))
	}
	defer release()

	unlock, acquired, err := o.store.TryLockPass(ctx)
	if err != nil {
		return o.finish(ctx, report, fmt.Errorf("%w: acquire pass lock: %w", ErrDependencyUnavailable, err))
	}
	if !acquired {
		return o.finish(ctx, report, fmt.Errorf("%w: pass lock held by another process", ErrConcurrentPass))
	}
	defer unlock()
	defer o.phase.Store(PhaseIdle)

	if o.cfg.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.PassTimeout)
		defer cancel()
	}

	o.phase.Store(PhaseResolvingFrontier)
	state, found, err := o.store.Repositories().State.Get(ctx)
	if err != nil {
		return o.finish(ctx, report, crerr.Mark(fmt.Errorf("load sync state: %w", err), ErrDependencyUnavailable))
	}

	var current *syncstate.State
	if found {
		current = &state
		report.PreviousSyncedDate = formatDay(state.LastSyncedDate)
	}

	days := ResolveFrontier(currentDate, current, o.cfg.SeasonStart)
	report.FrontierSize = len(days)
	if len(days) == 0 {
		report.Reason = "current date precedes season start " + formatDay(o.cfg.SeasonStart)
		if report.PreviousSyncedDate != "" {
			report.Reason = "store already synced through " + report.PreviousSyncedDate
		}
		return o.finish(ctx, report, nil)
	}

	o.logger.InfoContext(ctx, "sync pass started",
		"event", "sync_pass_started",
		"run_id", report.RunID,
		"from", formatDay(days[0]),
		"to", formatDay(days[len(days)-1]),
		"days", len(days),
	)

	o.tracker.Reset()

	fetchCtx, cancelFetch := context.WithCancel(ctx)
	fetches, wait, err := o.fetchFrontier(fetchCtx, days)
	if err != nil {
		cancelFetch()
		return o.finish(ctx, report, err)
	}
	defer wait()
	defer cancelFetch()

	advancing := true
	lastGameID := state.LastGameID
	for i, day := range days {
		var fetched dayFetch
		select {
		case fetched = <-fetches[i]:
		case <-ctx.Done():
			return o.finish(ctx, report, fmt.Errorf("pass abandoned before %s: %w", formatDay(day), ctx.Err()))
		}
		if fetched.err != nil {
			return o.finish(ctx, report, fetched.err)
		}

		dayReport, nextGameID, err := o.commitDay(ctx, fetched.batch, advancing, lastGameID)
		if err != nil {
			return o.finish(ctx, report, err)
		}
		if !dayReport.Settled {
			advancing = false
		}
		if dayReport.Advanced {
			lastGameID = nextGameID
		}
		report.addDay(dayReport)
	}

	return o.finish(ctx, report, nil)
}

type dayFetch struct {
	batch DayBatch
	err   error
}

// fetchFrontier fetches days on a bounded pool. Results arrive on one
// buffered channel per day so the caller can consume them in order while
// later days are still in flight. wait blocks until every worker exits.
func (o *SyncOrchestrator) fetchFrontier(ctx context.Context, days []time.Time) ([]chan dayFetch, func(), error) {
	fetches := make([]chan dayFetch, len(days))
	for i := range fetches {
		fetches[i] = make(chan dayFetch, 1)
	}

	workerPool, err := ants.NewPool(min(o.cfg.FetchWorkers, len(days)))
	if err != nil {
		return nil, nil, fmt.Errorf("create fetch pool: %w", err)
	}

	var workers sync.WaitGroup
	workers.Add(len(days))
	go func() {
		for i, day := range days {
			if ctx.Err() != nil {
				fetches[i] <- dayFetch{err: ctx.Err()}
				workers.Done()
				continue
			}
			if err := workerPool.Submit(func() {
				defer workers.Done()
				batch, err := o.fetchDay(ctx, day)
				fetches[i] <- dayFetch{batch: batch, err: err}
			}); err != nil {
				fetches[i] <- dayFetch{err: fmt.Errorf("submit fetch for %s: %w", formatDay(day), err)}
				workers.Done()
			}
		}
	}()

	wait := func() {
		workers.Wait()
		workerPool.Release()
	}
	return fetches, wait, nil
}

func (o *SyncOrchestrator) fetchDay(ctx context.Context, day time.Time) (DayBatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncOrchestrator.fetchDay", attribute.String("day", formatDay(day)))
	defer span.End()

	batch := DayBatch{Day: day, Logs: make(map[string][]SourcePlayerLog)}

	var games []SourceGame
	err := o.callSource(ctx, func(ctx context.Context) error {
		var err error
		games, err = o.source.ListGames(ctx, day)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return DayBatch{}, fmt.Errorf("%w: list games for %s: %w", ErrSourceUnavailable, formatDay(day), err)
	}
	batch.Games = games

	lines := make([][]SourcePlayerLog, len(games))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(o.cfg.GameWorkers).WithCancelOnError().WithFirstError()
	for i, g := range games {
		if g.Status != game.StatusFinal {
			continue
		}
		p.Go(func(ctx context.Context) error {
			return o.callSource(ctx, func(ctx context.Context) error {
				out, err := o.source.ListPlayerLogs(ctx, g.ExternalID)
				if err != nil {
					return fmt.Errorf("list player logs for game %s: %w", g.ExternalID, err)
				}
				lines[i] = out
				return nil
			})
		})
	}
	if err := p.Wait(); err != nil {
		recordSpanError(span, err)
		return DayBatch{}, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, formatDay(day), err)
	}

	for i, g := range games {
		if len(lines[i]) > 0 {
			batch.Logs[g.ExternalID] = lines[i]
		}
	}
	return batch, nil
}

func (o *SyncOrchestrator) callSource(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()
	return fn(callCtx)
}

func (o *SyncOrchestrator) commitDay(ctx context.Context, batch DayBatch, advance bool, lastGameID string) (DayReport, string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncOrchestrator.commitDay", attribute.String("day", formatDay(batch.Day)))
	defer span.End()

	dayReport := DayReport{Date: formatDay(batch.Day), Games: len(batch.Games)}
	err := o.store.WithinTx(ctx, func(ctx context.Context, repos SyncRepositories) error {
		o.phase.Store(PhaseMerging)
		merged, err := o.merger.Merge(ctx, repos, batch, o.tracker)
		if err != nil {
			return err
		}

		o.phase.Store(PhaseRecomputing)
		recomputed, err := o.recalculator.Recompute(ctx, repos, o.tracker.Drain(), o.cfg.RuleSets)
		if err != nil {
			return err
		}

		dayReport.GamesMerged = merged.GamesInserted + merged.GamesUpdated
		dayReport.LogsInserted = merged.LogsInserted
		dayReport.LogsChanged = merged.LogsUpdated
		dayReport.ScoresRecomputed = recomputed.Updated
		dayReport.Inconsistencies = merged.Inconsistencies + recomputed.Inconsistencies
		dayReport.Settled = merged.Unsettled == 0

		if !advance || !dayReport.Settled {
			return nil
		}
		if merged.LastGameID != "" {
			lastGameID = merged.LastGameID
		}
		next := syncstate.State{
			LastSyncedDate: batch.Day,
			LastGameID:     lastGameID,
			UpdatedAt:      o.now().UTC(),
		}
		if err := repos.State.Save(ctx, next); err != nil {
			return fmt.Errorf("%w: save sync state: %w", ErrStoreWriteFailure, err)
		}
		dayReport.Advanced = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStoreWriteFailure) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = crerr.Mark(err, ErrStoreWriteFailure)
		}
		recordSpanError(span, err)
		return DayReport{}, "", fmt.Errorf("commit %s: %w", dayReport.Date, err)
	}

	o.phase.Store(PhaseCommitted)
	o.logger.InfoContext(ctx, "sync day committed",
		"event", "sync_day_committed",
		"day", dayReport.Date,
		"games", dayReport.Games,
		"logs_inserted", dayReport.LogsInserted,
		"logs_changed", dayReport.LogsChanged,
		"scores", dayReport.ScoresRecomputed,
		"settled", dayReport.Settled,
		"advanced", dayReport.Advanced,
	)
	return dayReport, lastGameID, nil
}

func (o *SyncOrchestrator) finish(ctx context.Context, report SyncReport, err error) (SyncReport, error) {
	report.FinishedAt = o.now().UTC()

	switch {
	case err == nil && report.DaysProcessed == 0:
		report.Outcome = SyncOutcomeNoop
	case err == nil:
		report.Outcome = SyncOutcomeCompleted
		if !report.Advanced {
			report.Reason = "waiting on unsettled games from " + report.PendingDays[0]
		} else if len(report.PendingDays) > 0 {
			report.Reason = "held at " + report.SyncedThrough + ", unsettled games from " + report.PendingDays[0]
		}
	case errors.Is(err, ErrConcurrentPass):
		report.Outcome = SyncOutcomeRejected
		report.Reason = err.Error()
	default:
		report.Outcome = SyncOutcomeFailed
		report.Reason = err.Error()
		if report.Advanced {
			report.Reason = "stopped after " + report.SyncedThrough + ": " + err.Error()
		}
	}

	logArgs := []any{
		"event", "sync_pass_finished",
		"run_id", report.RunID,
		"outcome", report.Outcome,
		"days", report.DaysProcessed,
		"games_merged", report.GamesMerged,
		"logs_updated", report.LogsUpdated,
		"scores_recomputed", report.ScoresRecomputed,
		"inconsistencies", report.Inconsistencies,
		"advanced", report.Advanced,
		"synced_through", report.SyncedThrough,
		"duration_ms", report.Duration().Milliseconds(),
	}
	if err != nil {
		recordSpanError(trace.SpanFromContext(ctx), err)
		o.logger.WarnContext(ctx, "sync pass did not complete", append(logArgs, "error", err)...)
	} else {
		o.logger.InfoContext(ctx, "sync pass finished", logArgs...)
	}

	o.metrics.ObservePass(report)
	if report.Outcome != SyncOutcomeRejected {
		o.recordRun(ctx, report, err)
	}
	return report, err
}

func (o *SyncOrchestrator) recordRun(ctx context.Context, report SyncReport, passErr error) {
	payload, err := sonic.Marshal(report)
	if err != nil {
		o.logger.WarnContext(ctx, "encode sync report failed", "run_id", report.RunID, "error", err)
		payload = nil
	}

	run := syncstate.Run{
		RunID:         report.RunID,
		Status:        syncstate.RunStatus(report.Outcome),
		CurrentDate:   report.currentDay,
		SyncedFrom:    report.PreviousSyncedDate,
		SyncedThrough: report.SyncedThrough,
		Report:        payload,
		StartedAt:     report.StartedAt,
		FinishedAt:    report.FinishedAt,
	}
	if passErr != nil {
		run.ErrorMessage = passErr.Error()
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		run.TraceID = spanCtx.TraceID().String()
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.runs.Record(recordCtx, run); err != nil {
		o.logger.WarnContext(ctx, "record sync run failed", "run_id", run.RunID, "error", err)
	}
}
