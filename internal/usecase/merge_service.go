package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// DayBatch is everything fetched from the source for one calendar day.
// Logs are keyed by SourceGame.ExternalID.
type DayBatch struct {
	Day   time.Time
	Games []SourceGame
	Logs  map[string][]SourcePlayerLog
}

type MergeResult struct {
	GamesInserted   int `json:"games_inserted"`
	GamesUpdated    int `json:"games_updated"`
	GamesUnchanged  int `json:"games_unchanged"`
	LogsInserted    int `json:"logs_inserted"`
	LogsUpdated     int `json:"logs_updated"`
	LogsUnchanged   int `json:"logs_unchanged"`
	Inconsistencies int `json:"inconsistencies"`
	// Unsettled counts games still scheduled or in progress, plus final
	// games whose box score has not been published yet.
	Unsettled int `json:"unsettled"`
	// AwaitingBoxScore counts final games with no player lines stored or
	// fetched. They are included in Unsettled.
	AwaitingBoxScore int `json:"awaiting_box_score"`
	// LastGameID is the last game id merged, in source order.
	LastGameID string `json:"last_game_id,omitempty"`
}

func (r MergeResult) Inserted() int  { return r.GamesInserted + r.LogsInserted }
func (r MergeResult) Updated() int   { return r.GamesUpdated + r.LogsUpdated }
func (r MergeResult) Unchanged() int { return r.GamesUnchanged + r.LogsUnchanged }

// Merger upserts fetched games and box-score lines. Re-merging an identical
// batch writes nothing and records no deltas.
type Merger struct {
	logger *logging.Logger
	now    func() time.Time
}

func NewMerger(logger *logging.Logger) *Merger {
	if logger == nil {
		logger = logging.Default()
	}
	return &Merger{logger: logger, now: time.Now}
}

func (m *Merger) Merge(ctx context.Context, repos SyncRepositories, batch DayBatch, tracker *DeltaTracker) (MergeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Merger.Merge", attribute.String("day", batch.Day.Format(time.DateOnly)))
	defer span.End()

	var result MergeResult
	merged := make(map[string]game.Game, len(batch.Games))
	for _, incoming := range batch.Games {
		stored, outcome, err := m.mergeGame(ctx, repos.Games, batch.Day, incoming)
		if err != nil {
			recordSpanError(span, err)
			return MergeResult{}, err
		}
		switch outcome {
		case mergeInserted:
			result.GamesInserted++
		case mergeUpdated:
			result.GamesUpdated++
		default:
			result.GamesUnchanged++
		}
		if !game.IsSettled(stored.Status) {
			result.Unsettled++
		}
		merged[incoming.ExternalID] = stored
		result.LastGameID = stored.ID
	}

	externalIDs := make([]string, 0, len(batch.Logs))
	for externalID := range batch.Logs {
		externalIDs = append(externalIDs, externalID)
	}
	sort.Strings(externalIDs)

	accepted := make(map[string]int, len(externalIDs))
	for _, externalID := range externalIDs {
		lines := batch.Logs[externalID]
		parent, ok := merged[externalID]
		if !ok {
			result.Inconsistencies += len(lines)
			m.logger.WarnContext(ctx, "skip logs for unknown game",
				"event", "merge_orphan_logs",
				"external_game_id", externalID,
				"logs", len(lines),
				"error", ErrInconsistentReference,
			)
			continue
		}
		if !parent.IsFinal() {
			m.logger.DebugContext(ctx, "ignore logs for non-final game", "game_id", parent.ID, "status", parent.Status)
			continue
		}

		for _, line := range lines {
			outcome, err := m.mergeLog(ctx, repos.Logs, parent, line, tracker)
			if err != nil {
				recordSpanError(span, err)
				return MergeResult{}, err
			}
			if outcome != mergeSkipped {
				accepted[externalID]++
			}
			switch outcome {
			case mergeInserted:
				result.LogsInserted++
			case mergeUpdated:
				result.LogsUpdated++
			case mergeSkipped:
				result.Inconsistencies++
			default:
				result.LogsUnchanged++
			}
		}
	}

	for _, incoming := range batch.Games {
		parent := merged[incoming.ExternalID]
		if !parent.IsFinal() || accepted[incoming.ExternalID] > 0 {
			continue
		}
		stored, err := repos.Logs.List(ctx, gamelog.Filter{GameID: parent.ID, Limit: 1})
		if err != nil {
			recordSpanError(span, err)
			return MergeResult{}, fmt.Errorf("lookup logs for game %s: %w", parent.ID, err)
		}
		if len(stored) > 0 {
			continue
		}
		result.Unsettled++
		result.AwaitingBoxScore++
		m.logger.WarnContext(ctx, "final game has no box score yet, holding day",
			"event", "merge_box_score_pending",
			"game_id", parent.ID,
			"external_game_id", incoming.ExternalID,
		)
	}

	return result, nil
}

type mergeOutcome int

const (
	mergeUnchanged mergeOutcome = iota
	mergeInserted
	mergeUpdated
	mergeSkipped
)

func (m *Merger) mergeGame(ctx context.Context, repo game.Repository, day time.Time, incoming SourceGame) (game.Game, mergeOutcome, error) {
	key := game.NewKey(day, incoming.HomeTeam, incoming.AwayTeam)
	if err := key.Validate(); err != nil {
		return game.Game{}, mergeUnchanged, fmt.Errorf("%w: malformed game key %q: %w", ErrStoreWriteFailure, incoming.ExternalID, err)
	}

	existing, found, err := repo.GetByKey(ctx, key)
	if err != nil {
		return game.Game{}, mergeUnchanged, fmt.Errorf("lookup game %s: %w", key.ID(), err)
	}

	now := m.now().UTC()
	if !found {
		record := game.Game{
			ID:         key.ID(),
			Date:       key.Date,
			HomeTeam:   key.HomeTeam,
			AwayTeam:   key.AwayTeam,
			Status:     incoming.Status,
			ExternalID: incoming.ExternalID,
			HomeScore:  incoming.HomeScore,
			AwayScore:  incoming.AwayScore,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repo.Insert(ctx, record); err != nil {
			return game.Game{}, mergeUnchanged, fmt.Errorf("%w: insert game %s: %w", ErrStoreWriteFailure, record.ID, err)
		}
		return record, mergeInserted, nil
	}

	if existing.IsFinal() {
		if incoming.Status != game.StatusFinal || incoming.HomeScore != existing.HomeScore || incoming.AwayScore != existing.AwayScore {
			m.logger.WarnContext(ctx, "source disagrees with final game, keeping stored record",
				"event", "merge_final_game_conflict",
				"game_id", existing.ID,
				"source_status", incoming.Status,
			)
		}
		return existing, mergeUnchanged, nil
	}

	if existing.Status == incoming.Status &&
		existing.HomeScore == incoming.HomeScore &&
		existing.AwayScore == incoming.AwayScore &&
		existing.ExternalID == incoming.ExternalID {
		return existing, mergeUnchanged, nil
	}

	updated := existing
	updated.Status = incoming.Status
	updated.HomeScore = incoming.HomeScore
	updated.AwayScore = incoming.AwayScore
	updated.ExternalID = incoming.ExternalID
	updated.UpdatedAt = now
	if err := repo.UpdateStatus(ctx, updated); err != nil {
		return game.Game{}, mergeUnchanged, fmt.Errorf("%w: update game %s: %w", ErrStoreWriteFailure, updated.ID, err)
	}
	return updated, mergeUpdated, nil
}

func (m *Merger) mergeLog(ctx context.Context, repo gamelog.Repository, parent game.Game, line SourcePlayerLog, tracker *DeltaTracker) (mergeOutcome, error) {
	team := game.NormalizeTeam(line.Team)
	if line.PlayerID == "" || !parent.Involves(team) {
		m.logger.WarnContext(ctx, "skip malformed player log",
			"event", "merge_invalid_log",
			"game_id", parent.ID,
			"player_id", line.PlayerID,
			"team", team,
			"error", ErrInconsistentReference,
		)
		return mergeSkipped, nil
	}

	isHome := team == parent.HomeTeam
	opponent := parent.HomeTeam
	if isHome {
		opponent = parent.AwayTeam
	}

	now := m.now().UTC()
	incoming := gamelog.Log{
		ID:         gamelog.LogID(parent.ID, line.PlayerID),
		GameID:     parent.ID,
		GameDate:   parent.Date,
		PlayerID:   line.PlayerID,
		PlayerName: line.PlayerName,
		Team:       team,
		Opponent:   opponent,
		IsHome:     isHome,
		Stats:      line.Stats.Normalize(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, found, err := repo.Get(ctx, parent.ID, line.PlayerID)
	if err != nil {
		return mergeUnchanged, fmt.Errorf("lookup log %s: %w", incoming.ID, err)
	}

	if !found {
		if err := repo.Insert(ctx, incoming); err != nil {
			return mergeUnchanged, fmt.Errorf("%w: insert log %s: %w", ErrStoreWriteFailure, incoming.ID, err)
		}
		tracker.Record(incoming.ID, DeltaNew)
		return mergeInserted, nil
	}

	if existing.SameLine(incoming) {
		return mergeUnchanged, nil
	}

	incoming.CreatedAt = existing.CreatedAt
	if err := repo.Overwrite(ctx, incoming); err != nil {
		return mergeUnchanged, fmt.Errorf("%w: overwrite log %s: %w", ErrStoreWriteFailure, incoming.ID, err)
	}
	tracker.Record(incoming.ID, DeltaChanged)
	return mergeUpdated, nil
}
