package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	qb "github.com/riskibarqy/nba-fantasy-sync/internal/platform/querybuilder"
)

var gameColumns = []string{
	"id", "game_date", "home_team", "away_team", "status",
	"external_id", "home_score", "away_score", "created_at", "updated_at",
}

type GameRepository struct {
	db queryer
}

func NewGameRepository(db queryer) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByKey(ctx context.Context, key game.Key) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(
			qb.Eq("game_date", key.Date),
			qb.Eq("home_team", key.HomeTeam),
			qb.Eq("away_team", key.AwayTeam),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game %s: %w", key.ID(), err)
	}
	return gameFromRow(row), true, nil
}

func (r *GameRepository) GetByIDs(ctx context.Context, ids []string) (map[string]game.Game, error) {
	out := make(map[string]game.Game, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(qb.Any("id", pq.Array(ids))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get games by ids query: %w", err)
	}

	var rows []gameTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get games by ids: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = gameFromRow(row)
	}
	return out, nil
}

func (r *GameRepository) Insert(ctx context.Context, item game.Game) error {
	query, args, err := qb.InsertModel("games", gameToRow(item), "")
	if err != nil {
		return fmt.Errorf("build insert game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game %s: %w", item.ID, err)
	}
	return nil
}

func (r *GameRepository) UpdateStatus(ctx context.Context, item game.Game) error {
	query, args, err := qb.Update("games").
		Set("status", string(item.Status)).
		Set("home_score", item.HomeScore).
		Set("away_score", item.AwayScore).
		Set("external_id", nullableString(item.ExternalID)).
		Set("updated_at", item.UpdatedAt.UTC()).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update game %s: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("game %s not found", item.ID)
	}
	return nil
}

func (r *GameRepository) ListByDateRange(ctx context.Context, from, to time.Time, team string) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(
			qb.When(!from.IsZero(), qb.Gte("game_date", dateOnly(from))),
			qb.When(!to.IsZero(), qb.Lte("game_date", dateOnly(to))),
			qb.When(team != "", qb.Expr("(home_team = ? OR away_team = ?)", team, team)),
		).
		OrderBy("game_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}

	var rows []gameTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func gameToRow(item game.Game) gameTableModel {
	return gameTableModel{
		ID:         item.ID,
		GameDate:   dateOnly(item.Date),
		HomeTeam:   item.HomeTeam,
		AwayTeam:   item.AwayTeam,
		Status:     string(item.Status),
		ExternalID: nullableString(item.ExternalID),
		HomeScore:  item.HomeScore,
		AwayScore:  item.AwayScore,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:         row.ID,
		Date:       dateOnly(row.GameDate),
		HomeTeam:   row.HomeTeam,
		AwayTeam:   row.AwayTeam,
		Status:     game.Status(row.Status),
		ExternalID: row.ExternalID.String,
		HomeScore:  row.HomeScore,
		AwayScore:  row.AwayScore,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}
