package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const defaultRecomputeBatchSize = 500

type RecomputeResult struct {
	Updated         int      `json:"updated"`
	Inconsistencies int      `json:"inconsistencies"`
	SkippedLogIDs   []string `json:"skipped_log_ids,omitempty"`
}

// FantasyPointsRecalculator scores only the logs it is handed. It never
// scans the store for other rows.
type FantasyPointsRecalculator struct {
	logger    *logging.Logger
	batchSize int
	now       func() time.Time
}

func NewFantasyPointsRecalculator(logger *logging.Logger) *FantasyPointsRecalculator {
	if logger == nil {
		logger = logging.Default()
	}
	return &FantasyPointsRecalculator{
		logger:    logger,
		batchSize: defaultRecomputeBatchSize,
		now:       time.Now,
	}
}

func (r *FantasyPointsRecalculator) Recompute(ctx context.Context, repos SyncRepositories, affectedIDs []string, ruleSets []scoring.RuleSet) (RecomputeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FantasyPointsRecalculator.Recompute",
		attribute.Int("affected", len(affectedIDs)),
		attribute.Int("rule_sets", len(ruleSets)),
	)
	defer span.End()

	var result RecomputeResult
	if len(affectedIDs) == 0 || len(ruleSets) == 0 {
		return result, nil
	}

	logs, err := repos.Logs.GetByIDs(ctx, affectedIDs)
	if err != nil {
		recordSpanError(span, err)
		return RecomputeResult{}, fmt.Errorf("load affected logs: %w", err)
	}

	byID := make(map[string]gamelog.Log, len(logs))
	gameIDs := make([]string, 0, len(logs))
	seenGames := make(map[string]struct{}, len(logs))
	for _, item := range logs {
		byID[item.ID] = item
		if _, ok := seenGames[item.GameID]; !ok {
			seenGames[item.GameID] = struct{}{}
			gameIDs = append(gameIDs, item.GameID)
		}
	}

	games, err := repos.Games.GetByIDs(ctx, gameIDs)
	if err != nil {
		recordSpanError(span, err)
		return RecomputeResult{}, fmt.Errorf("load parent games: %w", err)
	}

	ordered := scoring.SortRuleSets(ruleSets)
	computedAt := r.now().UTC()
	records := make([]scoring.Record, 0, len(affectedIDs)*len(ordered))
	for _, logID := range affectedIDs {
		item, ok := byID[logID]
		if !ok {
			r.skip(ctx, &result, logID, "", "log missing")
			continue
		}
		if _, ok := games[item.GameID]; !ok {
			r.skip(ctx, &result, logID, item.GameID, "parent game missing")
			continue
		}

		for _, set := range ordered {
			records = append(records, scoring.Record{
				ID:         scoring.RecordID(item.ID, set.System),
				LogID:      item.ID,
				GameID:     item.GameID,
				GameDate:   item.GameDate,
				PlayerID:   item.PlayerID,
				System:     set.System,
				Points:     set.Score(item.Stats),
				ComputedAt: computedAt,
			})
		}
	}

	for start := 0; start < len(records); start += r.batchSize {
		end := min(start+r.batchSize, len(records))
		if err := repos.Points.Upsert(ctx, records[start:end]); err != nil {
			recordSpanError(span, err)
			return RecomputeResult{}, fmt.Errorf("%w: upsert fantasy points: %w", ErrStoreWriteFailure, err)
		}
	}

	result.Updated = len(records)
	return result, nil
}

func (r *FantasyPointsRecalculator) skip(ctx context.Context, result *RecomputeResult, logID, gameID, reason string) {
	result.Inconsistencies++
	result.SkippedLogIDs = append(result.SkippedLogIDs, logID)
	r.logger.WarnContext(ctx, "skip fantasy points recompute",
		"event", "recompute_inconsistent_reference",
		"log_id", logID,
		"game_id", gameID,
		"reason", reason,
		"error", ErrInconsistentReference,
	)
}
