package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
)

const (
	defaultQueryLimit = 500
	maxQueryLimit     = 5000
	defaultMinGames   = 10
	defaultRecentRuns = 20
	maxRecentRuns     = 200
)

// DateRange bounds a query by game date, inclusive. Zero ends are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) normalize() (DateRange, error) {
	if !r.From.IsZero() {
		r.From = game.Day(r.From)
	}
	if !r.To.IsZero() {
		r.To = game.Day(r.To)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return DateRange{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidInput, formatDay(r.From), formatDay(r.To))
	}
	return r, nil
}

// QueryService is the read-only view over the synced store.
type QueryService struct {
	repos    SyncRepositories
	runs     syncstate.RunRepository
	ruleSets map[string]struct{}
	logger   *logging.Logger
}

func NewQueryService(repos SyncRepositories, runs syncstate.RunRepository, ruleSets []scoring.RuleSet, logger *logging.Logger) *QueryService {
	if logger == nil {
		logger = logging.Default()
	}
	if runs == nil {
		runs = noopRunRepository{}
	}
	if len(ruleSets) == 0 {
		ruleSets = scoring.DefaultRuleSets()
	}
	known := make(map[string]struct{}, len(ruleSets))
	for _, set := range ruleSets {
		known[set.System] = struct{}{}
	}
	return &QueryService{repos: repos, runs: runs, ruleSets: known, logger: logger}
}

func (s *QueryService) ListGames(ctx context.Context, window DateRange, team string) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListGames")
	defer span.End()

	window, err := window.normalize()
	if err != nil {
		return nil, err
	}
	games, err := s.repos.Games.ListByDateRange(ctx, window.From, window.To, game.NormalizeTeam(team))
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *QueryService) ListPlayerLogs(ctx context.Context, playerID string, window DateRange, limit int) ([]gamelog.Log, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListPlayerLogs")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	return s.listLogs(ctx, gamelog.Filter{PlayerID: playerID}, window, limit)
}

func (s *QueryService) ListTeamLogs(ctx context.Context, team string, window DateRange, limit int) ([]gamelog.Log, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListTeamLogs")
	defer span.End()

	team = game.NormalizeTeam(team)
	if team == "" {
		return nil, fmt.Errorf("%w: team is required", ErrInvalidInput)
	}
	return s.listLogs(ctx, gamelog.Filter{Team: team}, window, limit)
}

func (s *QueryService) listLogs(ctx context.Context, filter gamelog.Filter, window DateRange, limit int) ([]gamelog.Log, error) {
	window, err := window.normalize()
	if err != nil {
		return nil, err
	}
	filter.From = window.From
	filter.To = window.To
	filter.Limit = clampLimit(limit, defaultQueryLimit, maxQueryLimit)

	logs, err := s.repos.Logs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

func (s *QueryService) ListFantasyPoints(ctx context.Context, playerID, system string, window DateRange, limit int) ([]scoring.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListFantasyPoints")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if system != "" {
		if err := s.ensureSystem(system); err != nil {
			return nil, err
		}
	}
	window, err := window.normalize()
	if err != nil {
		return nil, err
	}

	records, err := s.repos.Points.List(ctx, scoring.Filter{
		PlayerID: playerID,
		System:   system,
		From:     window.From,
		To:       window.To,
		Limit:    clampLimit(limit, defaultQueryLimit, maxQueryLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("list fantasy points: %w", err)
	}
	return records, nil
}

func (s *QueryService) FantasyAverages(ctx context.Context, system string, minGames int) ([]scoring.PlayerAverage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.FantasyAverages")
	defer span.End()

	if err := s.ensureSystem(system); err != nil {
		return nil, err
	}
	if minGames <= 0 {
		minGames = defaultMinGames
	}
	out, err := s.repos.Points.Averages(ctx, system, minGames)
	if err != nil {
		return nil, fmt.Errorf("fantasy averages: %w", err)
	}
	return out, nil
}

func (s *QueryService) HomeAwaySplits(ctx context.Context, system string) ([]scoring.HomeAwaySplit, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.HomeAwaySplits")
	defer span.End()

	if err := s.ensureSystem(system); err != nil {
		return nil, err
	}
	out, err := s.repos.Points.HomeAwaySplits(ctx, system)
	if err != nil {
		return nil, fmt.Errorf("home/away splits: %w", err)
	}
	return out, nil
}

func (s *QueryService) SyncState(ctx context.Context) (syncstate.State, error) {
	state, found, err := s.repos.State.Get(ctx)
	if err != nil {
		return syncstate.State{}, fmt.Errorf("get sync state: %w", err)
	}
	if !found {
		return syncstate.State{}, fmt.Errorf("%w: no sync pass has committed yet", ErrNotFound)
	}
	return state, nil
}

func (s *QueryService) RecentRuns(ctx context.Context, limit int) ([]syncstate.Run, error) {
	runs, err := s.runs.ListRecent(ctx, clampLimit(limit, defaultRecentRuns, maxRecentRuns))
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

func (s *QueryService) ensureSystem(system string) error {
	if strings.TrimSpace(system) == "" {
		return fmt.Errorf("%w: scoring system is required", ErrInvalidInput)
	}
	if _, ok := s.ruleSets[system]; !ok {
		return fmt.Errorf("%w: scoring system %q", ErrNotFound, system)
	}
	return nil
}

func clampLimit(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
