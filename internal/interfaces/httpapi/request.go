package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

const dateLayout = time.DateOnly

// windowQuery carries the shared ?from=&to=&limit= filters.
type windowQuery struct {
	From  string `validate:"omitempty,datetime=2006-01-02"`
	To    string `validate:"omitempty,datetime=2006-01-02"`
	Limit string `validate:"omitempty,number"`
}

func readWindowQuery(r *http.Request) windowQuery {
	q := r.URL.Query()
	return windowQuery{
		From:  strings.TrimSpace(q.Get("from")),
		To:    strings.TrimSpace(q.Get("to")),
		Limit: strings.TrimSpace(q.Get("limit")),
	}
}

func (q windowQuery) dateRange() usecase.DateRange {
	return usecase.DateRange{From: parseDay(q.From), To: parseDay(q.To)}
}

func (q windowQuery) limit() int {
	return atoiOrZero(q.Limit)
}

type gamesQuery struct {
	windowQuery
	Team string `validate:"omitempty,alpha,min=2,max=4"`
}

type teamLogsQuery struct {
	windowQuery
	Team string `validate:"required,alpha,min=2,max=4"`
}

type playerLogsQuery struct {
	windowQuery
	PlayerID string `validate:"required,max=64"`
}

type fantasyPointsQuery struct {
	windowQuery
	PlayerID string `validate:"required,max=64"`
	System   string `validate:"omitempty,max=64"`
}

type averagesQuery struct {
	System   string `validate:"required,max=64"`
	MinGames string `validate:"omitempty,number"`
}

type splitsQuery struct {
	System string `validate:"required,max=64"`
}

type runsQuery struct {
	Limit string `validate:"omitempty,number"`
}

// syncRequest is the optional body of POST /v1/internal/sync.
type syncRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func parseDay(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func atoiOrZero(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func requiredPathValue(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", usecase.ErrInvalidInput, name)
	}
	return v, nil
}
