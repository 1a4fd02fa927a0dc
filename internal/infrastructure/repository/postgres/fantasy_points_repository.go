package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	qb "github.com/riskibarqy/nba-fantasy-sync/internal/platform/querybuilder"
)

var fantasyPointsUpsertSuffix = qb.UpsertSuffix(
	[]string{"log_id", "system"},
	"game_id", "game_date", "player_id", "points", "computed_at",
)

const playerAveragesQuery = `
SELECT fp.player_id,
       MAX(l.player_name) AS player_name,
       COUNT(*) AS games,
       ROUND(AVG(fp.points)::numeric, 2)::float8 AS avg_points,
       MAX(fp.points) AS max_points
FROM fantasy_points fp
JOIN player_game_logs l ON l.id = fp.log_id
WHERE fp.system = $1
GROUP BY fp.player_id
HAVING COUNT(*) >= $2
ORDER BY avg_points DESC, fp.player_id`

const homeAwaySplitsQuery = `
SELECT fp.player_id,
       MAX(l.player_name) AS player_name,
       COUNT(*) FILTER (WHERE l.is_home) AS home_games,
       COALESCE(ROUND((AVG(fp.points) FILTER (WHERE l.is_home))::numeric, 2), 0)::float8 AS home_avg,
       COUNT(*) FILTER (WHERE NOT l.is_home) AS away_games,
       COALESCE(ROUND((AVG(fp.points) FILTER (WHERE NOT l.is_home))::numeric, 2), 0)::float8 AS away_avg
FROM fantasy_points fp
JOIN player_game_logs l ON l.id = fp.log_id
WHERE fp.system = $1
GROUP BY fp.player_id
ORDER BY fp.player_id`

type FantasyPointsRepository struct {
	db queryer
}

func NewFantasyPointsRepository(db queryer) *FantasyPointsRepository {
	return &FantasyPointsRepository{db: db}
}

// Upsert writes records as one multi-row statement keyed on (log_id, system).
func (r *FantasyPointsRepository) Upsert(ctx context.Context, records []scoring.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]fantasyPointsTableModel, 0, len(records))
	for _, item := range records {
		rows = append(rows, fantasyPointsTableModel{
			ID:         item.ID,
			LogID:      item.LogID,
			GameID:     item.GameID,
			GameDate:   dateOnly(item.GameDate),
			PlayerID:   item.PlayerID,
			System:     item.System,
			Points:     item.Points,
			ComputedAt: item.ComputedAt.UTC(),
		})
	}

	query, args, err := qb.InsertModels("fantasy_points", rows, fantasyPointsUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert fantasy points query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d fantasy points: %w", len(rows), err)
	}
	return nil
}

func (r *FantasyPointsRepository) List(ctx context.Context, filter scoring.Filter) ([]scoring.Record, error) {
	query, args, err := qb.Select("id", "log_id", "game_id", "game_date", "player_id", "system", "points", "computed_at").
		From("fantasy_points").
		Where(
			qb.When(filter.PlayerID != "", qb.Eq("player_id", filter.PlayerID)),
			qb.When(filter.System != "", qb.Eq("system", filter.System)),
			qb.When(!filter.From.IsZero(), qb.Gte("game_date", dateOnly(filter.From))),
			qb.When(!filter.To.IsZero(), qb.Lte("game_date", dateOnly(filter.To))),
		).
		OrderBy("game_date", "id").
		Limit(filter.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fantasy points query: %w", err)
	}

	var rows []fantasyPointsTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fantasy points: %w", err)
	}

	out := make([]scoring.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.Record{
			ID:         row.ID,
			LogID:      row.LogID,
			GameID:     row.GameID,
			GameDate:   dateOnly(row.GameDate),
			PlayerID:   row.PlayerID,
			System:     row.System,
			Points:     row.Points,
			ComputedAt: row.ComputedAt.UTC(),
		})
	}
	return out, nil
}

func (r *FantasyPointsRepository) Averages(ctx context.Context, system string, minGames int) ([]scoring.PlayerAverage, error) {
	var rows []playerAverageRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, playerAveragesQuery, system, minGames); err != nil {
		return nil, fmt.Errorf("query fantasy averages system=%s: %w", system, err)
	}

	out := make([]scoring.PlayerAverage, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.PlayerAverage{
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			System:     system,
			Games:      row.Games,
			AvgPoints:  row.AvgPoints,
			MaxPoints:  row.MaxPoints,
		})
	}
	return out, nil
}

func (r *FantasyPointsRepository) HomeAwaySplits(ctx context.Context, system string) ([]scoring.HomeAwaySplit, error) {
	var rows []homeAwaySplitRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, homeAwaySplitsQuery, system); err != nil {
		return nil, fmt.Errorf("query home/away splits system=%s: %w", system, err)
	}

	out := make([]scoring.HomeAwaySplit, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.HomeAwaySplit{
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			System:     system,
			HomeGames:  row.HomeGames,
			HomeAvg:    row.HomeAvg,
			AwayGames:  row.AwayGames,
			AwayAvg:    row.AwayAvg,
		})
	}
	return out, nil
}
