package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	"github.com/riskibarqy/nba-fantasy-sync/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/nba-fantasy-sync/internal/mocks/usecase"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/id"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
	"github.com/stretchr/testify/mock"
)

type capturedMetrics struct {
	mu      sync.Mutex
	reports []usecase.SyncReport
}

func (m *capturedMetrics) ObservePass(report usecase.SyncReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
}

func newOrchestrator(t *testing.T, store *memory.Store, source usecase.GameSource, opts ...usecase.SyncOption) *usecase.SyncOrchestrator {
	t.Helper()
	cfg := usecase.SyncConfig{
		SeasonStart:  day(t, "2024-01-01"),
		FetchWorkers: 2,
		GameWorkers:  2,
		FetchTimeout: time.Second,
	}
	base := []usecase.SyncOption{
		usecase.WithRunRepository(store.Runs()),
		usecase.WithIDGenerator(id.NewSequenceGenerator("run")),
		usecase.WithClock(fixedClock()),
	}
	return usecase.NewSyncOrchestrator(store, source, cfg, logging.NewNop(), append(base, opts...)...)
}

func mustState(t *testing.T, store *memory.Store) syncstate.State {
	t.Helper()
	state, found, err := store.Repositories().State.Get(context.Background())
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if !found {
		t.Fatalf("expected sync state to exist")
	}
	return state
}

func TestSyncOrchestrator_FirstPassCommitsFrontier(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := openingWeek()
	metrics := &capturedMetrics{}
	orchestrator := newOrchestrator(t, store, source, usecase.WithSyncMetrics(metrics))

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if report.Outcome != usecase.SyncOutcomeCompleted || !report.Advanced {
		t.Fatalf("unexpected outcome: %+v", report)
	}
	if report.RunID != "run-1" || report.FrontierSize != 2 || report.DaysProcessed != 2 {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if report.GamesMerged != 3 || report.LogsUpdated != 5 || report.ScoresRecomputed != 10 {
		t.Fatalf("unexpected report totals: %+v", report)
	}
	if report.SyncedThrough != "2024-01-02" || report.Reason != "" {
		t.Fatalf("unexpected synced through/reason: %q %q", report.SyncedThrough, report.Reason)
	}

	state := mustState(t, store)
	if state.LastSyncedDate.Format(time.DateOnly) != "2024-01-02" {
		t.Fatalf("unexpected last synced date %s", state.LastSyncedDate)
	}
	if want := gameID("2024-01-02", "MIA", "CHI"); state.LastGameID != want {
		t.Fatalf("last game id=%s want %s", state.LastGameID, want)
	}

	games, logs, points := store.Counts()
	if games != 3 || logs != 5 || points != 10 {
		t.Fatalf("unexpected store counts games=%d logs=%d points=%d", games, logs, points)
	}

	records, err := store.Repositories().Points.List(ctx, scoring.Filter{PlayerID: "james", System: scoring.SystemESPN})
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	if len(records) != 1 || records[0].Points != 32 {
		t.Fatalf("unexpected james espn points: %+v", records)
	}

	if orchestrator.Phase() != usecase.PhaseIdle {
		t.Fatalf("expected idle phase after pass, got %s", orchestrator.Phase())
	}
	if len(metrics.reports) != 1 {
		t.Fatalf("expected one metrics observation, got %d", len(metrics.reports))
	}

	runs, err := store.Runs().ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != syncstate.RunStatusCompleted || runs[0].SyncedThrough != "2024-01-02" {
		t.Fatalf("unexpected run history: %+v", runs)
	}
	var decoded usecase.SyncReport
	if err := sonic.Unmarshal(runs[0].Report, &decoded); err != nil {
		t.Fatalf("decode stored report: %v", err)
	}
	if decoded.ScoresRecomputed != 10 || len(decoded.Days) != 2 {
		t.Fatalf("unexpected stored report: %+v", decoded)
	}
}

func TestSyncOrchestrator_SecondPassIsNoop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := openingWeek()
	orchestrator := newOrchestrator(t, store, source)

	if _, err := orchestrator.Sync(ctx, day(t, "2024-01-02")); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	before := mustState(t, store)
	calls := source.gameCalls["2024-01-02"]

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeNoop || report.Updates() != 0 || report.Advanced {
		t.Fatalf("expected noop, got %+v", report)
	}
	if !strings.Contains(report.Reason, "already synced through 2024-01-02") {
		t.Fatalf("unexpected noop reason %q", report.Reason)
	}
	if source.gameCalls["2024-01-02"] != calls {
		t.Fatalf("noop pass should not call the source")
	}

	after := mustState(t, store)
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.LastGameID != before.LastGameID {
		t.Fatalf("noop pass changed state: %+v -> %+v", before, after)
	}
	if _, _, points := store.Counts(); points != 10 {
		t.Fatalf("noop pass changed points: %d", points)
	}
}

func TestSyncOrchestrator_BeforeSeasonStartIsNoop(t *testing.T) {
	store := memory.NewStore()
	orchestrator := newOrchestrator(t, store, openingWeek())

	report, err := orchestrator.Sync(context.Background(), day(t, "2023-12-15"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeNoop || report.FrontierSize != 0 {
		t.Fatalf("expected noop, got %+v", report)
	}
	if !strings.Contains(report.Reason, "precedes season start") {
		t.Fatalf("unexpected reason %q", report.Reason)
	}
	if _, found, _ := store.Repositories().State.Get(context.Background()); found {
		t.Fatalf("noop before season start must not create state")
	}
}

func TestSyncOrchestrator_RecomputesOnlyNewLogs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	history := game.Game{
		ID:       gameID("2024-01-01", "BOS", "NYK"),
		Date:     day(t, "2024-01-01"),
		HomeTeam: "BOS",
		AwayTeam: "NYK",
		Status:   game.StatusFinal,
	}
	logs := syntheticLogs(10000, history.Date, history)
	points := make([]scoring.Record, 0, len(logs))
	for _, l := range logs {
		points = append(points, scoring.Record{
			ID:       scoring.RecordID(l.ID, scoring.SystemESPN),
			LogID:    l.ID,
			GameID:   l.GameID,
			GameDate: l.GameDate,
			PlayerID: l.PlayerID,
			System:   scoring.SystemESPN,
			Points:   -1,
		})
	}
	store.Load(memory.Seed{
		Games:  []game.Game{history},
		Logs:   logs,
		Points: points,
		State:  &syncstate.State{LastSyncedDate: history.Date, LastGameID: history.ID},
	})

	source := newStubSource()
	source.addGame("2024-01-02", finalGame("402", "LAL", "GSW", 120, 118),
		playerLine("james", "LAL", sampleLine()),
		playerLine("curry", "GSW", benchLine(28)),
		playerLine("davis", "LAL", benchLine(22)),
	)
	orchestrator := newOrchestrator(t, store, source)

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.ScoresRecomputed != 6 {
		t.Fatalf("expected 6 recomputed scores, got %d", report.ScoresRecomputed)
	}
	if _, _, total := store.Counts(); total != 10000+6 {
		t.Fatalf("unexpected total points %d", total)
	}

	untouched, err := store.Repositories().Points.List(ctx, scoring.Filter{PlayerID: "hist-00042"})
	if err != nil {
		t.Fatalf("list history points: %v", err)
	}
	if len(untouched) != 1 || untouched[0].Points != -1 {
		t.Fatalf("historical points were recomputed: %+v", untouched)
	}
}

func TestSyncOrchestrator_HoldsStateAtUnsettledDay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := newStubSource()
	source.addGame("2024-01-01", finalGame("401", "BOS", "NYK", 110, 101),
		playerLine("tatum", "BOS", sampleLine()))
	source.addGame("2024-01-02", usecase.SourceGame{
		ExternalID: "402", HomeTeam: "LAL", AwayTeam: "GSW", Status: game.StatusInProgress, HomeScore: 60, AwayScore: 58,
	}, playerLine("james", "LAL", sampleLine()))
	source.addGame("2024-01-03", finalGame("403", "MIA", "CHI", 99, 97),
		playerLine("butler", "MIA", benchLine(18)))
	orchestrator := newOrchestrator(t, store, source)

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-03"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeCompleted || report.SyncedThrough != "2024-01-01" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.PendingDays) != 1 || report.PendingDays[0] != "2024-01-02" {
		t.Fatalf("unexpected pending days %v", report.PendingDays)
	}
	if !strings.Contains(report.Reason, "held at 2024-01-01") {
		t.Fatalf("unexpected reason %q", report.Reason)
	}
	if report.Days[2].Advanced {
		t.Fatalf("days after an unsettled day must not advance state")
	}
	if got := mustState(t, store).LastSyncedDate.Format(time.DateOnly); got != "2024-01-01" {
		t.Fatalf("state advanced past unsettled day: %s", got)
	}
	if _, logs, _ := store.Counts(); logs != 2 {
		t.Fatalf("expected logs from final games only, got %d", logs)
	}

	source.setStatus("2024-01-02", "402", game.StatusFinal)
	report, err = orchestrator.Sync(ctx, day(t, "2024-01-03"))
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if report.FrontierSize != 2 || report.SyncedThrough != "2024-01-03" || len(report.PendingDays) != 0 {
		t.Fatalf("unexpected resync report: %+v", report)
	}
	// Day three was already merged; only the newly final game writes rows.
	if report.LogsUpdated != 1 || report.ScoresRecomputed != 2 {
		t.Fatalf("unexpected resync totals: %+v", report)
	}
	if got := mustState(t, store).LastGameID; got != gameID("2024-01-03", "MIA", "CHI") {
		t.Fatalf("unexpected last game id %s", got)
	}
}

func TestSyncOrchestrator_HoldsStateUntilBoxScorePublished(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := newStubSource()
	source.addGame("2024-01-01", finalGame("401", "BOS", "NYK", 110, 101))
	orchestrator := newOrchestrator(t, store, source)

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-01"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Advanced || len(report.PendingDays) != 1 || report.PendingDays[0] != "2024-01-01" {
		t.Fatalf("day with a missing box score must be held: %+v", report)
	}
	if _, found, _ := store.Repositories().State.Get(ctx); found {
		t.Fatalf("state written before box score arrived")
	}

	source.publishLines("401", playerLine("tatum", "BOS", sampleLine()))
	report, err = orchestrator.Sync(ctx, day(t, "2024-01-01"))
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if report.SyncedThrough != "2024-01-01" || report.LogsUpdated != 1 || len(report.PendingDays) != 0 {
		t.Fatalf("unexpected resync report: %+v", report)
	}
	if _, logs, _ := store.Counts(); logs != 1 {
		t.Fatalf("expected tatum's line stored, got %d logs", logs)
	}
	if source.logCalls["401"] != 2 {
		t.Fatalf("expected box score fetched on both passes, got %d", source.logCalls["401"])
	}
}

func TestSyncOrchestrator_RejectsConcurrentPass(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := openingWeek()

	entered := make(chan struct{})
	releaseSource := make(chan struct{})
	var once sync.Once
	source.beforeListGames = func(ctx context.Context, _ time.Time) error {
		once.Do(func() { close(entered) })
		select {
		case <-releaseSource:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	orchestrator := newOrchestrator(t, store, source)
	target := day(t, "2024-01-02")

	firstDone := make(chan error, 1)
	go func() {
		_, err := orchestrator.Sync(ctx, target)
		firstDone <- err
	}()
	<-entered

	report, err := orchestrator.Sync(ctx, target)
	if !errors.Is(err, usecase.ErrConcurrentPass) {
		t.Fatalf("expected ErrConcurrentPass, got %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeRejected {
		t.Fatalf("expected rejected outcome, got %s", report.Outcome)
	}

	close(releaseSource)
	if err := <-firstDone; err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if got := mustState(t, store).LastSyncedDate.Format(time.DateOnly); got != "2024-01-02" {
		t.Fatalf("unexpected state after first pass: %s", got)
	}

	runs, _ := store.Runs().ListRecent(ctx, 10)
	if len(runs) != 1 {
		t.Fatalf("rejected passes are not recorded, got %d runs", len(runs))
	}
}

func TestSyncOrchestrator_RejectsWhenStoreLockHeld(t *testing.T) {
	store := memory.NewStore()
	release, ok, err := store.TryLockPass(context.Background())
	if err != nil || !ok {
		t.Fatalf("take store lock: ok=%v err=%v", ok, err)
	}
	defer release()

	orchestrator := newOrchestrator(t, store, openingWeek())
	_, err = orchestrator.Sync(context.Background(), day(t, "2024-01-02"))
	if !errors.Is(err, usecase.ErrConcurrentPass) {
		t.Fatalf("expected ErrConcurrentPass, got %v", err)
	}
	if _, found, _ := store.Repositories().State.Get(context.Background()); found {
		t.Fatalf("rejected pass must not write state")
	}
}

func TestSyncOrchestrator_SourceUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := usecasemock.NewGameSource(t)
	source.
		On("ListGames", mock.Anything, mock.Anything).
		Return(nil, errors.New("upstream returned 503"))

	orchestrator := newOrchestrator(t, store, source)
	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if !errors.Is(err, usecase.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeFailed || report.Advanced {
		t.Fatalf("unexpected report: %+v", report)
	}
	if games, _, _ := store.Counts(); games != 0 {
		t.Fatalf("failed pass wrote %d games", games)
	}
	if _, found, _ := store.Repositories().State.Get(ctx); found {
		t.Fatalf("failed pass must not write state")
	}

	runs, _ := store.Runs().ListRecent(ctx, 10)
	if len(runs) != 1 || runs[0].Status != syncstate.RunStatusFailed || runs[0].ErrorMessage == "" {
		t.Fatalf("expected failed run in history, got %+v", runs)
	}
}

func TestSyncOrchestrator_KeepsCommittedDaysWhenLaterDayFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first := day(t, "2024-01-01")
	second := day(t, "2024-01-02")

	source := usecasemock.NewGameSource(t)
	source.
		On("ListGames", mock.Anything, mock.MatchedBy(func(d time.Time) bool { return d.Equal(first) })).
		Return([]usecase.SourceGame{finalGame("401", "BOS", "NYK", 110, 101)}, nil).
		Once()
	source.
		On("ListPlayerLogs", mock.Anything, "401").
		Return([]usecase.SourcePlayerLog{playerLine("tatum", "BOS", sampleLine())}, nil).
		Once()
	source.
		On("ListGames", mock.Anything, mock.MatchedBy(func(d time.Time) bool { return d.Equal(second) })).
		Return(nil, errors.New("timeout")).
		Once()

	orchestrator := newOrchestrator(t, store, source)
	report, err := orchestrator.Sync(ctx, second)
	if !errors.Is(err, usecase.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeFailed || !report.Advanced || report.SyncedThrough != "2024-01-01" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !strings.HasPrefix(report.Reason, "stopped after 2024-01-01") {
		t.Fatalf("unexpected reason %q", report.Reason)
	}
	if got := mustState(t, store).LastSyncedDate; !got.Equal(first) {
		t.Fatalf("expected state at %s, got %s", first, got)
	}
}

func TestSyncOrchestrator_StoreWriteFailureRollsBackDay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.FailWrites(func(op string) error {
		if op == "logs.insert" {
			return errors.New("constraint violation")
		}
		return nil
	})
	orchestrator := newOrchestrator(t, store, openingWeek())

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if !errors.Is(err, usecase.ErrStoreWriteFailure) {
		t.Fatalf("expected ErrStoreWriteFailure, got %v", err)
	}
	if report.DaysProcessed != 0 {
		t.Fatalf("no day should commit, got %d", report.DaysProcessed)
	}
	if games, logs, points := store.Counts(); games+logs+points != 0 {
		t.Fatalf("rolled back day left rows: games=%d logs=%d points=%d", games, logs, points)
	}

	store.FailWrites(nil)
	report, err = orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if report.SyncedThrough != "2024-01-02" {
		t.Fatalf("retry should catch up, got %+v", report)
	}
}

func TestSyncOrchestrator_CanceledContext(t *testing.T) {
	store := memory.NewStore()
	orchestrator := newOrchestrator(t, store, openingWeek())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Outcome != usecase.SyncOutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", report.Outcome)
	}
	if _, found, _ := store.Repositories().State.Get(context.Background()); found {
		t.Fatalf("canceled pass must not write state")
	}
}

func TestSyncOrchestrator_PassTimeout(t *testing.T) {
	store := memory.NewStore()
	source := openingWeek()
	source.beforeListGames = func(ctx context.Context, _ time.Time) error {
		<-ctx.Done()
		return ctx.Err()
	}
	cfg := usecase.SyncConfig{
		SeasonStart:  day(t, "2024-01-01"),
		FetchTimeout: 5 * time.Second,
		PassTimeout:  50 * time.Millisecond,
	}
	orchestrator := usecase.NewSyncOrchestrator(store, source, cfg, logging.NewNop())

	_, err := orchestrator.Sync(context.Background(), day(t, "2024-01-02"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSyncOrchestrator_CorrectedLineIsRescored(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	source := openingWeek()
	source.setStatus("2024-01-02", "403", game.StatusInProgress)
	orchestrator := newOrchestrator(t, store, source)

	if _, err := orchestrator.Sync(ctx, day(t, "2024-01-02")); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// 402 was already final; the provider now corrects a stat line on it.
	source.setLine("402", "curry", gamelog.Statistics{Points: 40, FieldGoalsMade: 14, FieldGoalsAttempted: 25, ThreesMade: 8})
	source.setStatus("2024-01-02", "403", game.StatusFinal)

	report, err := orchestrator.Sync(ctx, day(t, "2024-01-02"))
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	// curry changed and butler is new: two logs, four scores.
	if report.LogsUpdated != 2 || report.ScoresRecomputed != 4 {
		t.Fatalf("unexpected totals: %+v", report)
	}

	records, err := store.Repositories().Points.List(ctx, scoring.Filter{PlayerID: "curry", System: scoring.SystemNBASalaryCap})
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	if len(records) != 1 || records[0].Points != 40 {
		t.Fatalf("expected rescored salary-cap points 40, got %+v", records)
	}
}
