package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
)

// SourceGame is one matchup as reported by the upstream provider.
type SourceGame struct {
	ExternalID string
	HomeTeam   string
	AwayTeam   string
	Status     game.Status
	HomeScore  int
	AwayScore  int
	StartsAt   time.Time
}

type SourcePlayerLog struct {
	PlayerID   string
	PlayerName string
	Team       string
	Stats      gamelog.Statistics
}

// GameSource is the read-only upstream feed. ListPlayerLogs returns an
// empty slice, not an error, for games that are not final yet.
type GameSource interface {
	ListGames(ctx context.Context, date time.Time) ([]SourceGame, error)
	ListPlayerLogs(ctx context.Context, gameID string) ([]SourcePlayerLog, error)
}
