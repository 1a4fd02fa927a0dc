package httpapi_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nba-fantasy-sync/internal/interfaces/httpapi"
	usecasemock "github.com/riskibarqy/nba-fantasy-sync/internal/mocks/usecase"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJobToken = "secret-token"

type envelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       map[string]any `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

type testServer struct {
	router http.Handler
	source *usecasemock.GameSource
}

func newTestServer(t *testing.T, metrics http.Handler) testServer {
	t.Helper()

	store := memory.NewStore()
	source := usecasemock.NewGameSource(t)
	logger := logging.NewNop()

	orchestrator := usecase.NewSyncOrchestrator(store, source, usecase.SyncConfig{
		SeasonStart: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, logger,
		usecase.WithRunRepository(store.Runs()),
		usecase.WithClock(func() time.Time { return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) }),
	)
	queries := usecase.NewQueryService(store.Repositories(), store.Runs(), nil, logger)
	handler := httpapi.NewHandler(queries, orchestrator, logger)

	return testServer{
		router: httpapi.NewRouter(handler, logger, true, []string{"*"}, testJobToken, metrics),
		source: source,
	}
}

func (s testServer) expectOpeningNight() {
	s.source.On("ListGames", mock.Anything, mock.Anything).Return([]usecase.SourceGame{{
		ExternalID: "401584701",
		HomeTeam:   "LAL",
		AwayTeam:   "GSW",
		Status:     game.StatusFinal,
		HomeScore:  112,
		AwayScore:  104,
	}}, nil).Maybe()
	s.source.On("ListPlayerLogs", mock.Anything, "401584701").Return([]usecase.SourcePlayerLog{
		{PlayerID: "james", PlayerName: "LeBron James", Team: "LAL", Stats: gamelog.Statistics{
			Minutes: 36, Points: 26, FieldGoalsMade: 10, FieldGoalsAttempted: 20, Rebounds: 8, Assists: 9,
		}},
		{PlayerID: "curry", PlayerName: "Stephen Curry", Team: "GSW", Stats: gamelog.Statistics{
			Minutes: 35.5, Points: 31, FieldGoalsMade: 11, FieldGoalsAttempted: 22, ThreesMade: 6, Rebounds: 4, Assists: 5,
		}},
	}, nil).Maybe()
}

func (s testServer) do(t *testing.T, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (s testServer) sync(t *testing.T, date string) envelope {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/v1/internal/sync", fmt.Sprintf(`{"date":%q}`, date),
		map[string]string{"X-Internal-Job-Token": testJobToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body
}

func items(t *testing.T, body envelope) []any {
	t.Helper()
	list, ok := body.Data["items"].([]any)
	require.True(t, ok, "expected items list, got %v", body.Data)
	return list
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, body := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2.0", body.APIVersion)
	require.Equal(t, "ok", body.Data["status"])
	require.Equal(t, string(usecase.PhaseIdle), body.Data["sync_phase"])
}

func TestTriggerSync_RequiresToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, body := srv.do(t, http.MethodPost, "/v1/internal/sync", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHENTICATED", body.Error.Status)

	rec, _ = srv.do(t, http.MethodPost, "/v1/internal/sync", "", map[string]string{"X-Internal-Job-Token": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerSync_RejectsBadPayload(t *testing.T) {
	srv := newTestServer(t, nil)
	headers := map[string]string{"X-Internal-Job-Token": testJobToken}

	rec, body := srv.do(t, http.MethodPost, "/v1/internal/sync", `{"date":"01/02/2024"}`, headers)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalidInput", body.Error.Errors[0].Reason)

	rec, _ = srv.do(t, http.MethodPost, "/v1/internal/sync", `{"day":"2024-01-02"}`, headers)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerSync_ThenQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.expectOpeningNight()

	report := srv.sync(t, "2024-01-02")
	require.Equal(t, string(usecase.SyncOutcomeCompleted), report.Data["outcome"])
	require.Equal(t, "2024-01-02", report.Data["synced_through"])
	require.NotEmpty(t, report.Data["run_id"])

	t.Run("games", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/games?from=2024-01-02&to=2024-01-02&team=gsw", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		games := items(t, body)
		require.Len(t, games, 1)
		first := games[0].(map[string]any)
		require.Equal(t, "20240102-LAL-GSW", first["id"])
		require.Equal(t, "final", first["status"])
	})

	t.Run("player logs", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/players/james/logs", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		logs := items(t, body)
		require.Len(t, logs, 1)
		first := logs[0].(map[string]any)
		require.Equal(t, "GSW", first["opponent"])
		require.Equal(t, true, first["is_home"])
	})

	t.Run("team logs", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/teams/GSW/logs?from=2024-01-01", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, items(t, body), 1)
	})

	t.Run("fantasy points", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/players/curry/fantasy-points?system=espn", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		points := items(t, body)
		require.Len(t, points, 1)
		require.Equal(t, "espn", points[0].(map[string]any)["system"])
	})

	t.Run("averages", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/fantasy/averages?system=espn&min_games=1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, items(t, body), 2)
	})

	t.Run("splits", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/fantasy/splits?system=nba_salary_cap", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, items(t, body), 2)
	})

	t.Run("sync state", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/sync/state", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "2024-01-02", body.Data["last_synced_date"])
		require.Equal(t, string(usecase.PhaseIdle), body.Data["phase"])
	})

	t.Run("sync runs", func(t *testing.T) {
		rec, body := srv.do(t, http.MethodGet, "/v1/sync/runs?limit=5", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		runs := items(t, body)
		require.Len(t, runs, 1)
		run := runs[0].(map[string]any)
		require.Equal(t, "completed", run["status"])
		require.NotNil(t, run["report"])
	})

	t.Run("second pass is a no-op", func(t *testing.T) {
		again := srv.sync(t, "2024-01-02")
		require.Equal(t, string(usecase.SyncOutcomeNoop), again.Data["outcome"])
	})
}

func TestQueryRoutes_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "bad from date", target: "/v1/games?from=2024-13-01", status: http.StatusBadRequest},
		{name: "inverted window", target: "/v1/games?from=2024-01-05&to=2024-01-01", status: http.StatusBadRequest},
		{name: "team not alpha", target: "/v1/games?team=L4L", status: http.StatusBadRequest},
		{name: "negative limit", target: "/v1/players/james/logs?limit=-1", status: http.StatusBadRequest},
		{name: "averages need system", target: "/v1/fantasy/averages", status: http.StatusBadRequest},
		{name: "unknown system", target: "/v1/fantasy/splits?system=yahoo", status: http.StatusNotFound},
		{name: "unknown system on player points", target: "/v1/players/james/fantasy-points?system=yahoo", status: http.StatusNotFound},
		{name: "no state yet", target: "/v1/sync/state", status: http.StatusNotFound},
		{name: "runs limit not numeric", target: "/v1/sync/runs?limit=ten", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := srv.do(t, http.MethodGet, tt.target, "", nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.NotNil(t, body.Error)
			require.Equal(t, tt.status, body.Error.Code)
		})
	}
}

type stubRunner struct {
	err error
}

func (s stubRunner) Sync(_ context.Context, currentDate time.Time) (usecase.SyncReport, error) {
	return usecase.SyncReport{
		RunID:       "sync-1",
		Outcome:     usecase.SyncOutcomeRejected,
		CurrentDate: currentDate.Format(time.DateOnly),
	}, s.err
}

func (stubRunner) Phase() usecase.SyncPhase { return usecase.PhaseMerging }

func TestTriggerSync_MapsPassErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{name: "concurrent pass", err: fmt.Errorf("%w: lock held", usecase.ErrConcurrentPass), status: http.StatusConflict, reason: "concurrentPass"},
		{name: "source down", err: fmt.Errorf("%w: 2024-01-02: timeout", usecase.ErrSourceUnavailable), status: http.StatusServiceUnavailable, reason: "sourceUnavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			logger := logging.NewNop()
			queries := usecase.NewQueryService(store.Repositories(), store.Runs(), nil, logger)
			router := httpapi.NewRouter(httpapi.NewHandler(queries, stubRunner{err: tt.err}, logger), logger, false, nil, testJobToken, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync?date=2024-01-02", nil)
			req.Header.Set("X-Internal-Job-Token", testJobToken)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			var body envelope
			require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.reason, body.Error.Errors[0].Reason)
			require.Equal(t, "sync-1", body.Data["run_id"], "report should ride along with the error")
		})
	}
}

func TestTriggerSync_FailedPassReportsCommittedDays(t *testing.T) {
	s := newTestServer(t, nil)
	s.source.On("ListGames", mock.Anything, mock.MatchedBy(func(d time.Time) bool {
		return d.Format(time.DateOnly) == "2024-01-02"
	})).Return([]usecase.SourceGame{{
		ExternalID: "401584701", HomeTeam: "LAL", AwayTeam: "GSW", Status: game.StatusFinal, HomeScore: 112, AwayScore: 104,
	}}, nil)
	s.source.On("ListPlayerLogs", mock.Anything, "401584701").Return([]usecase.SourcePlayerLog{
		{PlayerID: "james", PlayerName: "LeBron James", Team: "LAL", Stats: gamelog.Statistics{Minutes: 36, Points: 26}},
	}, nil)
	s.source.On("ListGames", mock.Anything, mock.MatchedBy(func(d time.Time) bool {
		return d.Format(time.DateOnly) == "2024-01-03"
	})).Return(nil, fmt.Errorf("upstream returned 502"))

	rec, body := s.do(t, http.MethodPost, "/v1/internal/sync", `{"date":"2024-01-03"}`,
		map[string]string{"X-Internal-Job-Token": testJobToken})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	require.NotNil(t, body.Error)
	require.Equal(t, "sourceUnavailable", body.Error.Errors[0].Reason)
	require.Equal(t, "failed", body.Data["outcome"])
	require.Equal(t, true, body.Data["advanced"])
	require.Equal(t, "2024-01-02", body.Data["synced_through"])
}

func TestRouter_MetricsAndDocs(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte("nba_sync_passes_total 0\n"))
	})
	srv := newTestServer(t, metrics)

	rec, _ := srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "nba_sync_passes_total")

	rec, _ = srv.do(t, http.MethodGet, "/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/v1/internal/sync")
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec, _ = srv.do(t, http.MethodGet, "/openapi.yaml", "", map[string]string{"If-None-Match": etag})
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec, _ = srv.do(t, http.MethodGet, "/docs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "swagger-ui")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, _ := srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
