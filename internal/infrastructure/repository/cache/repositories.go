package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	basecache "github.com/riskibarqy/nba-fantasy-sync/internal/platform/cache"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

const (
	gamesPrefix  = "games:"
	pointsPrefix = "points:"
)

// ReadRepositories wraps the query-side repositories of repos. Writes pass
// through and drop the affected cache prefix; Invalidator drops everything
// after a sync pass commits through a different handle.
func ReadRepositories(repos usecase.SyncRepositories, cache *basecache.Store) usecase.SyncRepositories {
	repos.Games = NewGameRepository(repos.Games, cache)
	repos.Points = NewFantasyPointsRepository(repos.Points, cache)
	return repos
}

// Invalidator returns a usecase.SyncMetrics that flushes cache whenever a
// pass wrote anything.
func Invalidator(cache *basecache.Store) usecase.SyncMetrics {
	return invalidator{cache: cache}
}

type invalidator struct {
	cache *basecache.Store
}

func (i invalidator) ObservePass(report usecase.SyncReport) {
	if report.Updates() > 0 {
		i.cache.Flush(context.Background())
	}
}

type GameRepository struct {
	game.Repository
	cache *basecache.Store
}

func NewGameRepository(next game.Repository, cache *basecache.Store) *GameRepository {
	return &GameRepository{Repository: next, cache: cache}
}

func (r *GameRepository) ListByDateRange(ctx context.Context, from, to time.Time, team string) ([]game.Game, error) {
	key := gamesPrefix + "range:" + dayKey(from) + ":" + dayKey(to) + ":" + team
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.Repository.ListByDateRange(ctx, from, to, team)
		if err != nil {
			return nil, err
		}
		return append([]game.Game(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]game.Game)
	return append([]game.Game(nil), items...), nil
}

func (r *GameRepository) Insert(ctx context.Context, item game.Game) error {
	if err := r.Repository.Insert(ctx, item); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, gamesPrefix)
	return nil
}

func (r *GameRepository) UpdateStatus(ctx context.Context, item game.Game) error {
	if err := r.Repository.UpdateStatus(ctx, item); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, gamesPrefix)
	return nil
}

type FantasyPointsRepository struct {
	scoring.Repository
	cache *basecache.Store
}

func NewFantasyPointsRepository(next scoring.Repository, cache *basecache.Store) *FantasyPointsRepository {
	return &FantasyPointsRepository{Repository: next, cache: cache}
}

func (r *FantasyPointsRepository) Averages(ctx context.Context, system string, minGames int) ([]scoring.PlayerAverage, error) {
	key := pointsPrefix + "avg:" + system + ":" + strconv.Itoa(minGames)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.Repository.Averages(ctx, system, minGames)
		if err != nil {
			return nil, err
		}
		return append([]scoring.PlayerAverage(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]scoring.PlayerAverage)
	return append([]scoring.PlayerAverage(nil), items...), nil
}

func (r *FantasyPointsRepository) HomeAwaySplits(ctx context.Context, system string) ([]scoring.HomeAwaySplit, error) {
	key := pointsPrefix + "splits:" + system
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.Repository.HomeAwaySplits(ctx, system)
		if err != nil {
			return nil, err
		}
		return append([]scoring.HomeAwaySplit(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]scoring.HomeAwaySplit)
	return append([]scoring.HomeAwaySplit(nil), items...), nil
}

func (r *FantasyPointsRepository) Upsert(ctx context.Context, records []scoring.Record) error {
	if err := r.Repository.Upsert(ctx, records); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, pointsPrefix)
	return nil
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}
