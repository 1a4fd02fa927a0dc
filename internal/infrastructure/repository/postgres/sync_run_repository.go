package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	qb "github.com/riskibarqy/nba-fantasy-sync/internal/platform/querybuilder"
)

var syncRunUpsertSuffix = qb.UpsertSuffix(
	[]string{"run_id"},
	"status", "pass_date", "synced_from", "synced_through", "report", "error_message", "finished_at", "trace_id",
)

// SyncRunRepository writes outside the pass transaction so failed passes are
// still recorded.
type SyncRunRepository struct {
	db queryer
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Record(ctx context.Context, run syncstate.Run) error {
	report := string(run.Report)
	if report == "" {
		report = "{}"
	}
	query, args, err := qb.InsertModel("sync_runs", syncRunTableModel{
		RunID:         run.RunID,
		Status:        string(run.Status),
		PassDate:      nullableDate(run.CurrentDate),
		SyncedFrom:    nullableString(run.SyncedFrom),
		SyncedThrough: nullableString(run.SyncedThrough),
		Report:        report,
		ErrorMessage:  nullableString(run.ErrorMessage),
		StartedAt:     run.StartedAt.UTC(),
		FinishedAt:    run.FinishedAt.UTC(),
		TraceID:       nullableString(run.TraceID),
	}, syncRunUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build record sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record sync run %s status=%s: %w", run.RunID, run.Status, err)
	}
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncstate.Run, error) {
	query, args, err := qb.Select(
		"run_id", "status", "pass_date", "synced_from", "synced_through",
		"report", "error_message", "started_at", "finished_at", "trace_id",
	).
		From("sync_runs").
		OrderBy("started_at DESC", "run_id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}

	out := make([]syncstate.Run, 0, len(rows))
	for _, row := range rows {
		run := syncstate.Run{
			RunID:         row.RunID,
			Status:        syncstate.RunStatus(row.Status),
			SyncedFrom:    row.SyncedFrom.String,
			SyncedThrough: row.SyncedThrough.String,
			Report:        []byte(row.Report),
			ErrorMessage:  row.ErrorMessage.String,
			StartedAt:     row.StartedAt.UTC(),
			FinishedAt:    row.FinishedAt.UTC(),
			TraceID:       row.TraceID.String,
		}
		if row.PassDate.Valid {
			run.CurrentDate = dateOnly(row.PassDate.Time)
		}
		out = append(out, run)
	}
	return out, nil
}
