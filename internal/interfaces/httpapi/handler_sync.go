package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

const maxSyncRequestBytes = 4 << 10

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

func (h *Handler) GetSyncState(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "GetSyncState")
	defer span.End()

	state, err := h.queries.SyncState(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get sync state failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := syncStateToDTO(state)
	if h.syncer != nil {
		out.Phase = string(h.syncer.Phase())
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "ListSyncRuns")
	defer span.End()

	query := runsQuery{Limit: strings.TrimSpace(r.URL.Query().Get("limit"))}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.queries.RecentRuns(ctx, atoiOrZero(query.Limit))
	if err != nil {
		h.logger.WarnContext(ctx, "list sync runs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]syncRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, syncRunToDTO(run))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[syncRunDTO]{Items: out, Count: len(out)})
}

// TriggerSync runs one pass synchronously. The date comes from the JSON
// body or ?date=, and defaults to today.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "TriggerSync")
	defer span.End()

	if h.syncer == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync runner is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	currentDate := parseDay(req.Date)
	if currentDate.IsZero() {
		currentDate = game.Today(h.now())
	}

	report, err := h.syncer.Sync(ctx, currentDate)
	if err != nil {
		h.logger.WarnContext(ctx, "triggered sync failed",
			"run_id", report.RunID,
			"outcome", report.Outcome,
			"current_date", report.CurrentDate,
			"advanced", report.Advanced,
			"error", err,
		)
		if report.Outcome == "" {
			writeError(ctx, w, err)
			return
		}
		writeErrorWithData(ctx, w, err, report)
		return
	}

	h.logger.InfoContext(ctx, "triggered sync finished",
		"run_id", report.RunID,
		"outcome", report.Outcome,
		"synced_through", report.SyncedThrough,
		"updates", report.Updates(),
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}

func decodeSyncRequest(r *http.Request) (syncRequest, error) {
	req := syncRequest{Date: strings.TrimSpace(r.URL.Query().Get("date"))}
	if r.Body == nil {
		return req, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSyncRequestBytes))
	if err != nil {
		return syncRequest{}, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return req, nil
	}

	var body syncRequest
	if err := strictJSON.Unmarshal(raw, &body); err != nil {
		return syncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if date := strings.TrimSpace(body.Date); date != "" {
		req.Date = date
	}
	return req, nil
}
