package usecase

import (
	"context"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
)

// SyncRepositories groups the repositories one unit of work writes through.
type SyncRepositories struct {
	Games  game.Repository
	Logs   gamelog.Repository
	Points scoring.Repository
	State  syncstate.Repository
}

// SyncStore is the persistent store owned by the sync engine.
type SyncStore interface {
	// Repositories returns non-transactional repositories for reads.
	Repositories() SyncRepositories
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos SyncRepositories) error) error
	// TryLockPass takes the store-wide pass lock without blocking.
	TryLockPass(ctx context.Context) (release func(), acquired bool, err error)
}
