package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
)

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseRunDate accepts YYYY-MM-DD or an English phrase relative to now.
// An empty value means today.
func parseRunDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return game.Today(now), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}

	result, err := dateParser.Parse(strings.ToLower(raw), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: use YYYY-MM-DD or a phrase like \"yesterday\"", raw)
	}
	return game.Day(result.Time), nil
}
