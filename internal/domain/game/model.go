package game

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinal      Status = "final"
	StatusPostponed  Status = "postponed"
)

const dateKeyLayout = "20060102"

// Key is the natural identity of a game: one matchup per calendar day.
type Key struct {
	Date     time.Time
	HomeTeam string
	AwayTeam string
}

func NewKey(date time.Time, homeTeam, awayTeam string) Key {
	return Key{
		Date:     Day(date),
		HomeTeam: NormalizeTeam(homeTeam),
		AwayTeam: NormalizeTeam(awayTeam),
	}
}

// ID derives the stable record identifier, e.g. 20240102-BOS-LAL.
func (k Key) ID() string {
	return fmt.Sprintf("%s-%s-%s", k.Date.Format(dateKeyLayout), k.HomeTeam, k.AwayTeam)
}

func (k Key) Validate() error {
	if k.Date.IsZero() {
		return fmt.Errorf("game date is required")
	}
	if k.HomeTeam == "" || k.AwayTeam == "" {
		return fmt.Errorf("home and away teams are required")
	}
	if k.HomeTeam == k.AwayTeam {
		return fmt.Errorf("home and away teams must differ: %s", k.HomeTeam)
	}
	return nil
}

// Game is one scheduled or played matchup.
type Game struct {
	ID         string
	Date       time.Time
	HomeTeam   string
	AwayTeam   string
	Status     Status
	ExternalID string
	HomeScore  int
	AwayScore  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (g Game) Key() Key {
	return NewKey(g.Date, g.HomeTeam, g.AwayTeam)
}

func (g Game) IsFinal() bool {
	return g.Status == StatusFinal
}

// Involves reports whether team played in the game.
func (g Game) Involves(team string) bool {
	team = NormalizeTeam(team)
	return g.HomeTeam == team || g.AwayTeam == team
}

// Margin is the score difference from the given team's perspective.
func (g Game) Margin(team string) int {
	switch NormalizeTeam(team) {
	case g.HomeTeam:
		return g.HomeScore - g.AwayScore
	case g.AwayTeam:
		return g.AwayScore - g.HomeScore
	default:
		return 0
	}
}

func NormalizeStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "final", "post", "completed", "status_final":
		return StatusFinal
	case "in_progress", "in", "live", "halftime", "status_in_progress", "status_halftime", "status_end_period":
		return StatusInProgress
	case "postponed", "canceled", "cancelled", "status_postponed", "status_canceled":
		return StatusPostponed
	default:
		return StatusScheduled
	}
}

// IsSettled reports whether no further box-score data is expected.
func IsSettled(status Status) bool {
	return status == StatusFinal || status == StatusPostponed
}

func NormalizeTeam(team string) string {
	return strings.ToUpper(strings.TrimSpace(team))
}

// Day returns the calendar day of t as seen in t's own location, stored as
// midnight UTC. 21:30 EST on Jan 2 is Jan 2, not Jan 3.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the default current date for a sync pass: the calendar day of now
// in the process's local time zone. The CLI and the HTTP trigger both use it.
func Today(now time.Time) time.Time {
	return Day(now.In(time.Local))
}
