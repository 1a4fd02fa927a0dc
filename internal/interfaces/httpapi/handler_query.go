package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "ListGames")
	defer span.End()

	query := gamesQuery{
		windowQuery: readWindowQuery(r),
		Team:        strings.TrimSpace(r.URL.Query().Get("team")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.queries.ListGames(ctx, query.dateRange(), query.Team)
	if err != nil {
		h.logger.WarnContext(ctx, "list games failed", "from", query.From, "to", query.To, "team", query.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]gameDTO, 0, len(items))
	for _, item := range items {
		out = append(out, gameToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[gameDTO]{Items: out, Count: len(out)})
}

func (h *Handler) ListPlayerLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "ListPlayerLogs")
	defer span.End()

	playerID, err := requiredPathValue(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := playerLogsQuery{windowQuery: readWindowQuery(r), PlayerID: playerID}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.queries.ListPlayerLogs(ctx, query.PlayerID, query.dateRange(), query.limit())
	if err != nil {
		h.logger.WarnContext(ctx, "list player logs failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]gameLogDTO, 0, len(items))
	for _, item := range items {
		out = append(out, gameLogToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[gameLogDTO]{Items: out, Count: len(out)})
}

func (h *Handler) ListTeamLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "ListTeamLogs")
	defer span.End()

	team, err := requiredPathValue(r, "team")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := teamLogsQuery{windowQuery: readWindowQuery(r), Team: team}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.queries.ListTeamLogs(ctx, query.Team, query.dateRange(), query.limit())
	if err != nil {
		h.logger.WarnContext(ctx, "list team logs failed", "team", team, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]gameLogDTO, 0, len(items))
	for _, item := range items {
		out = append(out, gameLogToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[gameLogDTO]{Items: out, Count: len(out)})
}

func (h *Handler) ListFantasyPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "ListFantasyPoints")
	defer span.End()

	playerID, err := requiredPathValue(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := fantasyPointsQuery{
		windowQuery: readWindowQuery(r),
		PlayerID:    playerID,
		System:      strings.TrimSpace(r.URL.Query().Get("system")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.queries.ListFantasyPoints(ctx, query.PlayerID, query.System, query.dateRange(), query.limit())
	if err != nil {
		h.logger.WarnContext(ctx, "list fantasy points failed", "player_id", playerID, "system", query.System, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]fantasyPointsDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fantasyPointsToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[fantasyPointsDTO]{Items: out, Count: len(out)})
}

func (h *Handler) FantasyAverages(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "FantasyAverages")
	defer span.End()

	query := averagesQuery{
		System:   strings.TrimSpace(r.URL.Query().Get("system")),
		MinGames: strings.TrimSpace(r.URL.Query().Get("min_games")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.queries.FantasyAverages(ctx, query.System, atoiOrZero(query.MinGames))
	if err != nil {
		h.logger.WarnContext(ctx, "fantasy averages failed", "system", query.System, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]playerAverageDTO, 0, len(items))
	for _, item := range items {
		out = append(out, playerAverageToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[playerAverageDTO]{Items: out, Count: len(out)})
}

func (h *Handler) HomeAwaySplits(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "HomeAwaySplits")
	defer span.End()

	query := splitsQuery{System: strings.TrimSpace(r.URL.Query().Get("system"))}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.queries.HomeAwaySplits(ctx, query.System)
	if err != nil {
		h.logger.WarnContext(ctx, "home/away splits failed", "system", query.System, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]homeAwaySplitDTO, 0, len(items))
	for _, item := range items {
		out = append(out, homeAwaySplitToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[homeAwaySplitDTO]{Items: out, Count: len(out)})
}
