package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		t.Fatalf("parse day %q: %v", raw, err)
	}
	return d
}

func fixedClock() func() time.Time {
	at := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func sampleLine() gamelog.Statistics {
	return gamelog.Statistics{
		Minutes:             36,
		Points:              30,
		FieldGoalsMade:      11,
		FieldGoalsAttempted: 20,
		ThreesMade:          3,
		FreeThrowsMade:      5,
		FreeThrowsAttempted: 6,
		Rebounds:            8,
		Assists:             7,
		Steals:              2,
		Blocks:              1,
		Turnovers:           3,
	}
}

func benchLine(points int) gamelog.Statistics {
	return gamelog.Statistics{
		Minutes:             12,
		Points:              points,
		FieldGoalsMade:      points / 2,
		FieldGoalsAttempted: points,
		Rebounds:            2,
		Assists:             1,
	}
}

// stubSource serves a fixed schedule keyed by calendar day and external game id.
type stubSource struct {
	mu    sync.Mutex
	games map[string][]usecase.SourceGame
	logs  map[string][]usecase.SourcePlayerLog

	gamesErr map[string]error
	logsErr  map[string]error

	gameCalls map[string]int
	logCalls  map[string]int

	// beforeListGames, when set, runs at the start of every ListGames call.
	beforeListGames func(ctx context.Context, date time.Time) error
}

func newStubSource() *stubSource {
	return &stubSource{
		games:     make(map[string][]usecase.SourceGame),
		logs:      make(map[string][]usecase.SourcePlayerLog),
		gamesErr:  make(map[string]error),
		logsErr:   make(map[string]error),
		gameCalls: make(map[string]int),
		logCalls:  make(map[string]int),
	}
}

func (s *stubSource) addGame(date string, g usecase.SourceGame, lines ...usecase.SourcePlayerLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[date] = append(s.games[date], g)
	if len(lines) > 0 {
		s.logs[g.ExternalID] = append(s.logs[g.ExternalID], lines...)
	}
}

func (s *stubSource) publishLines(externalID string, lines ...usecase.SourcePlayerLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[externalID] = append(s.logs[externalID], lines...)
}

func (s *stubSource) setLine(externalID, playerID string, stats gamelog.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.logs[externalID]
	for i := range lines {
		if lines[i].PlayerID == playerID {
			lines[i].Stats = stats
		}
	}
}

func (s *stubSource) setStatus(date, externalID string, status game.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	games := s.games[date]
	for i := range games {
		if games[i].ExternalID == externalID {
			games[i].Status = status
		}
	}
}

func (s *stubSource) ListGames(ctx context.Context, date time.Time) ([]usecase.SourceGame, error) {
	if s.beforeListGames != nil {
		if err := s.beforeListGames(ctx, date); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := date.Format(time.DateOnly)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameCalls[key]++
	if err := s.gamesErr[key]; err != nil {
		return nil, err
	}
	return append([]usecase.SourceGame(nil), s.games[key]...), nil
}

func (s *stubSource) ListPlayerLogs(ctx context.Context, gameID string) ([]usecase.SourcePlayerLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logCalls[gameID]++
	if err := s.logsErr[gameID]; err != nil {
		return nil, err
	}
	return append([]usecase.SourcePlayerLog(nil), s.logs[gameID]...), nil
}

func finalGame(externalID, home, away string, homeScore, awayScore int) usecase.SourceGame {
	return usecase.SourceGame{
		ExternalID: externalID,
		HomeTeam:   home,
		AwayTeam:   away,
		Status:     game.StatusFinal,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
	}
}

func playerLine(playerID, team string, stats gamelog.Statistics) usecase.SourcePlayerLog {
	return usecase.SourcePlayerLog{
		PlayerID:   playerID,
		PlayerName: "Player " + playerID,
		Team:       team,
		Stats:      stats,
	}
}

// openingWeek is two days of finals: one game on Jan 1, two on Jan 2.
func openingWeek() *stubSource {
	src := newStubSource()
	src.addGame("2024-01-01", finalGame("401", "BOS", "NYK", 110, 101),
		playerLine("tatum", "BOS", sampleLine()),
		playerLine("brunson", "NYK", benchLine(20)),
	)
	src.addGame("2024-01-02", finalGame("402", "LAL", "GSW", 120, 118),
		playerLine("james", "LAL", sampleLine()),
		playerLine("curry", "GSW", benchLine(28)),
	)
	src.addGame("2024-01-02", finalGame("403", "MIA", "CHI", 99, 97),
		playerLine("butler", "MIA", benchLine(18)),
	)
	return src
}

func gameID(date, home, away string) string {
	d, _ := time.Parse(time.DateOnly, date)
	return game.NewKey(d, home, away).ID()
}

func logID(date, home, away, playerID string) string {
	return gamelog.LogID(gameID(date, home, away), playerID)
}

func syntheticLogs(count int, gameDay time.Time, g game.Game) []gamelog.Log {
	out := make([]gamelog.Log, 0, count)
	for i := 0; i < count; i++ {
		playerID := fmt.Sprintf("hist-%05d", i)
		out = append(out, gamelog.Log{
			ID:         gamelog.LogID(g.ID, playerID),
			GameID:     g.ID,
			GameDate:   gameDay,
			PlayerID:   playerID,
			PlayerName: playerID,
			Team:       g.HomeTeam,
			Opponent:   g.AwayTeam,
			IsHome:     true,
			Stats:      benchLine(i % 40),
		})
	}
	return out
}
