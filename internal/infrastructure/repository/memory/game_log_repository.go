package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
)

type GameLogRepository struct {
	view view
}

func (r *GameLogRepository) Get(_ context.Context, gameID, playerID string) (gamelog.Log, bool, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	item, ok := r.view.data().logs[gamelog.LogID(gameID, playerID)]
	return item, ok, nil
}

func (r *GameLogRepository) GetByIDs(_ context.Context, ids []string) ([]gamelog.Log, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make([]gamelog.Log, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.view.data().logs[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *GameLogRepository) Insert(_ context.Context, item gamelog.Log) error {
	if err := r.view.checkWrite("logs.insert"); err != nil {
		return err
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()

	data := r.view.data()
	if _, ok := data.games[item.GameID]; !ok {
		return fmt.Errorf("log %s references missing game %s", item.ID, item.GameID)
	}
	if _, exists := data.logs[item.ID]; exists {
		return fmt.Errorf("duplicate log %s", item.ID)
	}
	data.logs[item.ID] = item
	return nil
}

func (r *GameLogRepository) Overwrite(_ context.Context, item gamelog.Log) error {
	if err := r.view.checkWrite("logs.overwrite"); err != nil {
		return err
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()

	logs := r.view.data().logs
	if _, ok := logs[item.ID]; !ok {
		return fmt.Errorf("log %s not found", item.ID)
	}
	logs[item.ID] = item
	return nil
}

func (r *GameLogRepository) List(_ context.Context, filter gamelog.Filter) ([]gamelog.Log, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make([]gamelog.Log, 0)
	for _, item := range r.view.data().logs {
		if filter.GameID != "" && item.GameID != filter.GameID {
			continue
		}
		if filter.PlayerID != "" && item.PlayerID != filter.PlayerID {
			continue
		}
		if filter.Team != "" && item.Team != filter.Team {
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
