package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	qb "github.com/riskibarqy/nba-fantasy-sync/internal/platform/querybuilder"
)

var gameLogColumns = []string{
	"id", "game_id", "game_date", "player_id", "player_name", "team", "opponent", "is_home",
	"minutes", "pts", "fgm", "fga", "fg3m", "fg3a", "ftm", "fta",
	"oreb", "dreb", "reb", "ast", "stl", "blk", "tov", "pf", "plus_minus",
	"created_at", "updated_at",
}

type GameLogRepository struct {
	db queryer
}

func NewGameLogRepository(db queryer) *GameLogRepository {
	return &GameLogRepository{db: db}
}

func (r *GameLogRepository) Get(ctx context.Context, gameID, playerID string) (gamelog.Log, bool, error) {
	query, args, err := qb.Select(gameLogColumns...).
		From("player_game_logs").
		Where(
			qb.Eq("game_id", gameID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return gamelog.Log{}, false, fmt.Errorf("build get game log query: %w", err)
	}

	var row gameLogTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gamelog.Log{}, false, nil
		}
		return gamelog.Log{}, false, fmt.Errorf("get game log game=%s player=%s: %w", gameID, playerID, err)
	}
	return gameLogFromRow(row), true, nil
}

func (r *GameLogRepository) GetByIDs(ctx context.Context, ids []string) ([]gamelog.Log, error) {
	if len(ids) == 0 {
		return []gamelog.Log{}, nil
	}

	query, args, err := qb.Select(gameLogColumns...).
		From("player_game_logs").
		Where(qb.Any("id", pq.Array(ids))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get game logs by ids query: %w", err)
	}

	var rows []gameLogTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get game logs by ids: %w", err)
	}
	return gameLogsFromRows(rows), nil
}

func (r *GameLogRepository) Insert(ctx context.Context, item gamelog.Log) error {
	query, args, err := qb.InsertModel("player_game_logs", gameLogToRow(item), "")
	if err != nil {
		return fmt.Errorf("build insert game log query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game log %s: %w", item.ID, err)
	}
	return nil
}

// Overwrite replaces the stat line and descriptive fields of an existing log.
// The identity columns and created_at are left untouched.
func (r *GameLogRepository) Overwrite(ctx context.Context, item gamelog.Log) error {
	row := gameLogToRow(item)
	query, args, err := qb.Update("player_game_logs").
		Set("player_name", row.PlayerName).
		Set("team", row.Team).
		Set("opponent", row.Opponent).
		Set("is_home", row.IsHome).
		Set("minutes", row.Minutes).
		Set("pts", row.Points).
		Set("fgm", row.FieldGoalsMade).
		Set("fga", row.FieldGoalsAttempted).
		Set("fg3m", row.ThreesMade).
		Set("fg3a", row.ThreesAttempted).
		Set("ftm", row.FreeThrowsMade).
		Set("fta", row.FreeThrowsAttempted).
		Set("oreb", row.OffensiveRebounds).
		Set("dreb", row.DefensiveRebounds).
		Set("reb", row.Rebounds).
		Set("ast", row.Assists).
		Set("stl", row.Steals).
		Set("blk", row.Blocks).
		Set("tov", row.Turnovers).
		Set("pf", row.PersonalFouls).
		Set("plus_minus", row.PlusMinus).
		Set("updated_at", row.UpdatedAt).
		Where(qb.Eq("id", row.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build overwrite game log query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("overwrite game log %s: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("game log %s not found", item.ID)
	}
	return nil
}

func (r *GameLogRepository) List(ctx context.Context, filter gamelog.Filter) ([]gamelog.Log, error) {
	query, args, err := qb.Select(gameLogColumns...).
		From("player_game_logs").
		Where(
			qb.When(filter.GameID != "", qb.Eq("game_id", filter.GameID)),
			qb.When(filter.PlayerID != "", qb.Eq("player_id", filter.PlayerID)),
			qb.When(filter.Team != "", qb.Eq("team", filter.Team)),
			qb.When(!filter.From.IsZero(), qb.Gte("game_date", dateOnly(filter.From))),
			qb.When(!filter.To.IsZero(), qb.Lte("game_date", dateOnly(filter.To))),
		).
		OrderBy("game_date", "id").
		Limit(filter.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list game logs query: %w", err)
	}

	var rows []gameLogTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list game logs: %w", err)
	}
	return gameLogsFromRows(rows), nil
}

func gameLogToRow(item gamelog.Log) gameLogTableModel {
	s := item.Stats
	return gameLogTableModel{
		ID:                  item.ID,
		GameID:              item.GameID,
		GameDate:            dateOnly(item.GameDate),
		PlayerID:            item.PlayerID,
		PlayerName:          item.PlayerName,
		Team:                item.Team,
		Opponent:            item.Opponent,
		IsHome:              item.IsHome,
		Minutes:             s.Minutes,
		Points:              s.Points,
		FieldGoalsMade:      s.FieldGoalsMade,
		FieldGoalsAttempted: s.FieldGoalsAttempted,
		ThreesMade:          s.ThreesMade,
		ThreesAttempted:     s.ThreesAttempted,
		FreeThrowsMade:      s.FreeThrowsMade,
		FreeThrowsAttempted: s.FreeThrowsAttempted,
		OffensiveRebounds:   s.OffensiveRebounds,
		DefensiveRebounds:   s.DefensiveRebounds,
		Rebounds:            s.Rebounds,
		Assists:             s.Assists,
		Steals:              s.Steals,
		Blocks:              s.Blocks,
		Turnovers:           s.Turnovers,
		PersonalFouls:       s.PersonalFouls,
		PlusMinus:           s.PlusMinus,
		CreatedAt:           item.CreatedAt.UTC(),
		UpdatedAt:           item.UpdatedAt.UTC(),
	}
}

func gameLogFromRow(row gameLogTableModel) gamelog.Log {
	return gamelog.Log{
		ID:         row.ID,
		GameID:     row.GameID,
		GameDate:   dateOnly(row.GameDate),
		PlayerID:   row.PlayerID,
		PlayerName: row.PlayerName,
		Team:       row.Team,
		Opponent:   row.Opponent,
		IsHome:     row.IsHome,
		Stats: gamelog.Statistics{
			Minutes:             row.Minutes,
			Points:              row.Points,
			FieldGoalsMade:      row.FieldGoalsMade,
			FieldGoalsAttempted: row.FieldGoalsAttempted,
			ThreesMade:          row.ThreesMade,
			ThreesAttempted:     row.ThreesAttempted,
			FreeThrowsMade:      row.FreeThrowsMade,
			FreeThrowsAttempted: row.FreeThrowsAttempted,
			OffensiveRebounds:   row.OffensiveRebounds,
			DefensiveRebounds:   row.DefensiveRebounds,
			Rebounds:            row.Rebounds,
			Assists:             row.Assists,
			Steals:              row.Steals,
			Blocks:              row.Blocks,
			Turnovers:           row.Turnovers,
			PersonalFouls:       row.PersonalFouls,
			PlusMinus:           row.PlusMinus,
		},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func gameLogsFromRows(rows []gameLogTableModel) []gamelog.Log {
	out := make([]gamelog.Log, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameLogFromRow(row))
	}
	return out
}
