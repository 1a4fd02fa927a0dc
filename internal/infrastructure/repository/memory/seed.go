package memory

import (
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
)

// Seed loads rows directly into committed data, bypassing the sync engine.
type Seed struct {
	Games  []game.Game
	Logs   []gamelog.Log
	Points []scoring.Record
	State  *syncstate.State
}

func (s *Store) Load(seed Seed) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	for _, item := range seed.Games {
		s.data.games[item.ID] = item
	}
	for _, item := range seed.Logs {
		s.data.logs[item.ID] = item
	}
	for _, item := range seed.Points {
		s.data.points[item.ID] = item
	}
	if seed.State != nil {
		state := *seed.State
		s.data.state = &state
	}
}

// Counts reports committed row counts, for tests and the CLI dry run.
func (s *Store) Counts() (games, logs, points int) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return len(s.data.games), len(s.data.logs), len(s.data.points)
}
