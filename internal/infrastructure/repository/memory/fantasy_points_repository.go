package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
)

type FantasyPointsRepository struct {
	view view
}

func (r *FantasyPointsRepository) Upsert(_ context.Context, records []scoring.Record) error {
	if err := r.view.checkWrite("fantasy_points.upsert"); err != nil {
		return err
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()

	data := r.view.data()
	for _, item := range records {
		if _, ok := data.logs[item.LogID]; !ok {
			return fmt.Errorf("fantasy points %s reference missing log %s", item.ID, item.LogID)
		}
		data.points[item.ID] = item
	}
	return nil
}

func (r *FantasyPointsRepository) List(_ context.Context, filter scoring.Filter) ([]scoring.Record, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make([]scoring.Record, 0)
	for _, item := range r.view.data().points {
		if filter.PlayerID != "" && item.PlayerID != filter.PlayerID {
			continue
		}
		if filter.System != "" && item.System != filter.System {
			continue
		}
		if !inRange(item.GameDate, filter.From, filter.To) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GameDate.Equal(out[j].GameDate) {
			return out[i].GameDate.Before(out[j].GameDate)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type pointsAccumulator struct {
	name      string
	games     int
	total     float64
	max       float64
	homeGames int
	homeTotal float64
	awayGames int
	awayTotal float64
}

func (r *FantasyPointsRepository) accumulate(system string) map[string]*pointsAccumulator {
	data := r.view.data()
	acc := make(map[string]*pointsAccumulator)
	for _, item := range data.points {
		if item.System != system {
			continue
		}
		line, ok := data.logs[item.LogID]
		if !ok {
			continue
		}
		a, ok := acc[item.PlayerID]
		if !ok {
			a = &pointsAccumulator{name: line.PlayerName, max: math.Inf(-1)}
			acc[item.PlayerID] = a
		}
		a.games++
		a.total += item.Points
		a.max = math.Max(a.max, item.Points)
		if line.IsHome {
			a.homeGames++
			a.homeTotal += item.Points
		} else {
			a.awayGames++
			a.awayTotal += item.Points
		}
	}
	return acc
}

func (r *FantasyPointsRepository) Averages(_ context.Context, system string, minGames int) ([]scoring.PlayerAverage, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make([]scoring.PlayerAverage, 0)
	for playerID, a := range r.accumulate(system) {
		if a.games < minGames {
			continue
		}
		out = append(out, scoring.PlayerAverage{
			PlayerID:   playerID,
			PlayerName: a.name,
			System:     system,
			Games:      a.games,
			AvgPoints:  round2(a.total / float64(a.games)),
			MaxPoints:  a.max,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPoints != out[j].AvgPoints {
			return out[i].AvgPoints > out[j].AvgPoints
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *FantasyPointsRepository) HomeAwaySplits(_ context.Context, system string) ([]scoring.HomeAwaySplit, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make([]scoring.HomeAwaySplit, 0)
	for playerID, a := range r.accumulate(system) {
		split := scoring.HomeAwaySplit{
			PlayerID:   playerID,
			PlayerName: a.name,
			System:     system,
			HomeGames:  a.homeGames,
			AwayGames:  a.awayGames,
		}
		if a.homeGames > 0 {
			split.HomeAvg = round2(a.homeTotal / float64(a.homeGames))
		}
		if a.awayGames > 0 {
			split.AwayAvg = round2(a.awayTotal / float64(a.awayGames))
		}
		out = append(out, split)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
