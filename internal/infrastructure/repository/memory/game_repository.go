package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
)

type GameRepository struct {
	view view
}

func (r *GameRepository) GetByKey(_ context.Context, key game.Key) (game.Game, bool, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	item, ok := r.view.data().games[key.ID()]
	return item, ok, nil
}

func (r *GameRepository) GetByIDs(_ context.Context, ids []string) (map[string]game.Game, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make(map[string]game.Game, len(ids))
	for _, id := range ids {
		if item, ok := r.view.data().games[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (r *GameRepository) Insert(_ context.Context, item game.Game) error {
	if err := r.view.checkWrite("games.insert"); err != nil {
		return err
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()

	games := r.view.data().games
	if _, exists := games[item.ID]; exists {
		return fmt.Errorf("duplicate game %s", item.ID)
	}
	games[item.ID] = item
	return nil
}

func (r *GameRepository) UpdateStatus(_ context.Context, item game.Game) error {
	if err := r.view.checkWrite("games.update"); err != nil {
		return err
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()

	games := r.view.data().games
	existing, ok := games[item.ID]
	if !ok {
		return fmt.Errorf("game %s not found", item.ID)
	}
	existing.Status = item.Status
	existing.HomeScore = item.HomeScore
	existing.AwayScore = item.AwayScore
	existing.ExternalID = item.ExternalID
	existing.UpdatedAt = item.UpdatedAt
	games[item.ID] = existing
	return nil
}

func (r *GameRepository) ListByDateRange(_ context.Context, from, to time.Time, team string) ([]game.Game, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.view.data().games {
		if !inRange(item.Date, from, to) {
			continue
		}
		if team != "" && !item.Involves(team) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func inRange(day, from, to time.Time) bool {
	if !from.IsZero() && day.Before(from) {
		return false
	}
	if !to.IsZero() && day.After(to) {
		return false
	}
	return true
}
