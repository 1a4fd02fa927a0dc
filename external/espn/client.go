package espn

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/resilience"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL   = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"
	scoreboardLayout = "20060102"
	maxBodyBytes     = 8 << 20
)

var (
	errESPNTransient = crerr.New("espn transient failure")
	errESPNNotFound  = crerr.New("espn resource not found")

	eventIDRegex = regexp.MustCompile(`^[0-9]+$`)
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public ESPN scoreboard and game summary endpoints and
// implements usecase.GameSource.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight[[]byte]
	// flightTimeout bounds a shared request, which runs detached from any
	// one caller's context.
	flightTimeout time.Duration
}

var _ usecase.GameSource = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	breaker := resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker.WithDefaults())
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("espn circuit breaker state changed", "from", from, "to", to)
	})

	maxRetries := max(cfg.MaxRetries, 0)
	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		maxRetries:    maxRetries,
		retryBackoff:  backoff,
		logger:        logger,
		breaker:       breaker,
		flightTimeout: requestBudget(httpClient.Timeout, backoff, maxRetries),
	}
}

// requestBudget is the worst case for one executeRequest: every attempt
// timing out plus the linear backoff between them.
func requestBudget(attemptTimeout, backoff time.Duration, retries int) time.Duration {
	budget := attemptTimeout * time.Duration(retries+1)
	for attempt := 1; attempt <= retries; attempt++ {
		budget += time.Duration(attempt) * backoff
	}
	return budget
}

// ListGames returns every NBA game on the scoreboard for date.
func (c *Client) ListGames(ctx context.Context, date time.Time) ([]usecase.SourceGame, error) {
	day := game.Day(date)
	var payload scoreboardEnvelope
	if err := c.doJSON(ctx, "/scoreboard", url.Values{"dates": {day.Format(scoreboardLayout)}}, &payload); err != nil {
		return nil, fmt.Errorf("fetch scoreboard date=%s: %w", day.Format(time.DateOnly), err)
	}

	out := make([]usecase.SourceGame, 0, len(payload.Events))
	for _, event := range payload.Events {
		item, ok := parseEvent(event)
		if !ok {
			c.logger.WarnContext(ctx, "skip malformed espn event", "event_id", event.ID, "date", day.Format(time.DateOnly))
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// ListPlayerLogs returns the box score of a final game. Games that are not
// final yield an empty slice.
func (c *Client) ListPlayerLogs(ctx context.Context, gameID string) ([]usecase.SourcePlayerLog, error) {
	gameID = strings.TrimSpace(gameID)
	if !eventIDRegex.MatchString(gameID) {
		return nil, fmt.Errorf("%w: espn event id %q", usecase.ErrInvalidInput, gameID)
	}

	var payload summaryEnvelope
	if err := c.doJSON(ctx, "/summary", url.Values{"event": {gameID}}, &payload); err != nil {
		if crerr.Is(err, errESPNNotFound) {
			return []usecase.SourcePlayerLog{}, nil
		}
		return nil, fmt.Errorf("fetch summary event=%s: %w", gameID, err)
	}

	if payload.status() != game.StatusFinal {
		return []usecase.SourcePlayerLog{}, nil
	}
	return parseBoxScore(payload.BoxScore), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State(), "path", path)
		return fmt.Errorf("%w: espn is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.DoContext(ctx, fullURL, func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()
		body, reqErr := c.executeRequest(callCtx, fullURL)
		if reqErr != nil && isCircuitFailure(reqErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return body, reqErr
	})
	if err != nil {
		if isCircuitFailure(err) {
			return fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode espn payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = crerr.Wrapf(errESPNTransient, "send request: %v", err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errESPNTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				if len(raw) > 0 && raw[0] == '<' {
					return nil, fmt.Errorf("espn returned html body=%s", abbreviateBody(raw))
				}
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, crerr.Wrapf(errESPNNotFound, "status=%d", resp.StatusCode)
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errESPNTransient, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("espn status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = stderrors.New("espn request failed")
	}
	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// isCircuitFailure counts only upstream outages; bad ids and canceled
// callers leave the breaker alone.
func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if crerr.Is(err, context.Canceled) || crerr.Is(err, errESPNNotFound) {
		return false
	}
	return crerr.Is(err, errESPNTransient) || crerr.Is(err, context.DeadlineExceeded)
}

func abbreviateBody(raw []byte) string {
	const limit = 200
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
