package scoring

import "context"

type Repository interface {
	Upsert(ctx context.Context, records []Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
	Averages(ctx context.Context, system string, minGames int) ([]PlayerAverage, error)
	HomeAwaySplits(ctx context.Context, system string) ([]HomeAwaySplit, error)
}
