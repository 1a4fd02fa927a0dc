package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	qb "github.com/riskibarqy/nba-fantasy-sync/internal/platform/querybuilder"
)

// syncStateRowID pins the table to a single row.
const syncStateRowID = 1

type SyncStateRepository struct {
	db queryer
}

func NewSyncStateRepository(db queryer) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

func (r *SyncStateRepository) Get(ctx context.Context) (syncstate.State, bool, error) {
	query, args, err := qb.Select("id", "last_synced_date", "last_game_id", "updated_at").
		From("sync_state").
		Where(qb.Eq("id", syncStateRowID)).
		ToSQL()
	if err != nil {
		return syncstate.State{}, false, fmt.Errorf("build get sync state query: %w", err)
	}

	var row syncStateTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return syncstate.State{}, false, nil
		}
		return syncstate.State{}, false, fmt.Errorf("get sync state: %w", err)
	}
	return syncstate.State{
		LastSyncedDate: dateOnly(row.LastSyncedDate),
		LastGameID:     row.LastGameID.String,
		UpdatedAt:      row.UpdatedAt.UTC(),
	}, true, nil
}

func (r *SyncStateRepository) Save(ctx context.Context, state syncstate.State) error {
	query, args, err := qb.InsertModel("sync_state", syncStateTableModel{
		ID:             syncStateRowID,
		LastSyncedDate: dateOnly(state.LastSyncedDate),
		LastGameID:     nullableString(state.LastGameID),
		UpdatedAt:      state.UpdatedAt.UTC(),
	}, qb.UpsertSuffix([]string{"id"}, "last_synced_date", "last_game_id", "updated_at"))
	if err != nil {
		return fmt.Errorf("build save sync state query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save sync state date=%s: %w", state.LastSyncedDate.Format("2006-01-02"), err)
	}
	return nil
}
