package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerQueryRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/games", handler.ListGames)
	mux.HandleFunc("GET /v1/players/{playerID}/logs", handler.ListPlayerLogs)
	mux.HandleFunc("GET /v1/players/{playerID}/fantasy-points", handler.ListFantasyPoints)
	mux.HandleFunc("GET /v1/teams/{team}/logs", handler.ListTeamLogs)
	mux.HandleFunc("GET /v1/fantasy/averages", handler.FantasyAverages)
	mux.HandleFunc("GET /v1/fantasy/splits", handler.HomeAwaySplits)
	mux.HandleFunc("GET /v1/sync/state", handler.GetSyncState)
	mux.HandleFunc("GET /v1/sync/runs", handler.ListSyncRuns)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.TriggerSync)))
}
