package usecase

import (
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
)

// ResolveFrontier lists, oldest first, the calendar days after the last
// synced date up to and including current. A nil state means nothing has
// been synced yet and the frontier starts at seasonStart.
func ResolveFrontier(current time.Time, state *syncstate.State, seasonStart time.Time) []time.Time {
	current = game.Day(current)

	var floor time.Time
	if state != nil {
		floor = game.Day(state.LastSyncedDate)
	} else {
		floor = game.Day(seasonStart).AddDate(0, 0, -1)
	}

	if !current.After(floor) {
		return []time.Time{}
	}

	var days []time.Time
	for day := current; day.After(floor); day = day.AddDate(0, 0, -1) {
		days = append(days, day)
	}
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}
