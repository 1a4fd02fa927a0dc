package gamelog

import (
	"fmt"
	"strings"
	"time"
)

// StatName is one box-score column. The set is closed: scoring weights may
// only reference names listed in AllStats.
type StatName string

const (
	StatMinutes             StatName = "MIN"
	StatPoints              StatName = "PTS"
	StatFieldGoalsMade      StatName = "FG"
	StatFieldGoalsAttempted StatName = "FGA"
	StatThreesMade          StatName = "3P"
	StatThreesAttempted     StatName = "3PA"
	StatFreeThrowsMade      StatName = "FT"
	StatFreeThrowsAttempted StatName = "FTA"
	StatOffensiveRebounds   StatName = "ORB"
	StatDefensiveRebounds   StatName = "DRB"
	StatRebounds            StatName = "TRB"
	StatAssists             StatName = "AST"
	StatSteals              StatName = "STL"
	StatBlocks              StatName = "BLK"
	StatTurnovers           StatName = "TOV"
	StatPersonalFouls       StatName = "PF"
	StatPlusMinus           StatName = "+/-"
)

var AllStats = []StatName{
	StatMinutes, StatPoints,
	StatFieldGoalsMade, StatFieldGoalsAttempted,
	StatThreesMade, StatThreesAttempted,
	StatFreeThrowsMade, StatFreeThrowsAttempted,
	StatOffensiveRebounds, StatDefensiveRebounds, StatRebounds,
	StatAssists, StatSteals, StatBlocks, StatTurnovers,
	StatPersonalFouls, StatPlusMinus,
}

var knownStats = func() map[StatName]struct{} {
	out := make(map[StatName]struct{}, len(AllStats))
	for _, name := range AllStats {
		out[name] = struct{}{}
	}
	return out
}()

func ParseStatName(raw string) (StatName, error) {
	name := StatName(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := knownStats[name]; !ok {
		return "", fmt.Errorf("unknown stat %q", raw)
	}
	return name, nil
}

// Statistics is a player's box-score line. Zero values mean "did not record".
type Statistics struct {
	Minutes             float64
	Points              int
	FieldGoalsMade      int
	FieldGoalsAttempted int
	ThreesMade          int
	ThreesAttempted     int
	FreeThrowsMade      int
	FreeThrowsAttempted int
	OffensiveRebounds   int
	DefensiveRebounds   int
	Rebounds            int
	Assists             int
	Steals              int
	Blocks              int
	Turnovers           int
	PersonalFouls       int
	PlusMinus           int
}

// Value returns the numeric value for name; unknown names yield zero.
func (s Statistics) Value(name StatName) float64 {
	switch name {
	case StatMinutes:
		return s.Minutes
	case StatPoints:
		return float64(s.Points)
	case StatFieldGoalsMade:
		return float64(s.FieldGoalsMade)
	case StatFieldGoalsAttempted:
		return float64(s.FieldGoalsAttempted)
	case StatThreesMade:
		return float64(s.ThreesMade)
	case StatThreesAttempted:
		return float64(s.ThreesAttempted)
	case StatFreeThrowsMade:
		return float64(s.FreeThrowsMade)
	case StatFreeThrowsAttempted:
		return float64(s.FreeThrowsAttempted)
	case StatOffensiveRebounds:
		return float64(s.OffensiveRebounds)
	case StatDefensiveRebounds:
		return float64(s.DefensiveRebounds)
	case StatRebounds:
		return float64(s.Rebounds)
	case StatAssists:
		return float64(s.Assists)
	case StatSteals:
		return float64(s.Steals)
	case StatBlocks:
		return float64(s.Blocks)
	case StatTurnovers:
		return float64(s.Turnovers)
	case StatPersonalFouls:
		return float64(s.PersonalFouls)
	case StatPlusMinus:
		return float64(s.PlusMinus)
	default:
		return 0
	}
}

// Normalize fills total rebounds from its components when the source omits it.
func (s Statistics) Normalize() Statistics {
	if s.Rebounds == 0 {
		s.Rebounds = s.OffensiveRebounds + s.DefensiveRebounds
	}
	return s
}

// DidNotPlay reports a line with no recorded activity.
func (s Statistics) DidNotPlay() bool {
	return s == Statistics{}
}

// Log is one player's line in one game.
type Log struct {
	ID         string
	GameID     string
	GameDate   time.Time
	PlayerID   string
	PlayerName string
	Team       string
	Opponent   string
	IsHome     bool
	Stats      Statistics
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func LogID(gameID, playerID string) string {
	return gameID + ":" + strings.TrimSpace(playerID)
}

// SameLine reports whether two logs carry identical box-score content.
func (l Log) SameLine(other Log) bool {
	return l.Stats == other.Stats &&
		l.PlayerName == other.PlayerName &&
		l.Team == other.Team &&
		l.Opponent == other.Opponent &&
		l.IsHome == other.IsHome
}

type Filter struct {
	GameID   string
	PlayerID string
	Team     string
	From     time.Time
	To       time.Time
	Limit    int
}
