package syncstate

import "context"

type Repository interface {
	Get(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
}

type RunRepository interface {
	Record(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
