package game

import (
	"context"
	"time"
)

type Repository interface {
	GetByKey(ctx context.Context, key Key) (Game, bool, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]Game, error)
	Insert(ctx context.Context, game Game) error
	UpdateStatus(ctx context.Context, game Game) error
	ListByDateRange(ctx context.Context, from, to time.Time, team string) ([]Game, error)
}
