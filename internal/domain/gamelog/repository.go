package gamelog

import "context"

type Repository interface {
	Get(ctx context.Context, gameID, playerID string) (Log, bool, error)
	GetByIDs(ctx context.Context, ids []string) ([]Log, error)
	Insert(ctx context.Context, log Log) error
	Overwrite(ctx context.Context, log Log) error
	List(ctx context.Context, filter Filter) ([]Log, error)
}
