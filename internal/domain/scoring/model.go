package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
)

const (
	SystemESPN         = "espn"
	SystemNBASalaryCap = "nba_salary_cap"
)

var (
	ErrEmptySystem   = errors.New("scoring system name is required")
	ErrNoWeights     = errors.New("rule set has no weights")
	ErrUnknownStat   = errors.New("rule set references unknown stat")
	ErrDuplicateRule = errors.New("duplicate scoring system")
)

// RuleSet maps box-score stats to fantasy weights for one scoring system.
type RuleSet struct {
	System  string
	Weights map[gamelog.StatName]float64
}

func (r RuleSet) Validate() error {
	if strings.TrimSpace(r.System) == "" {
		return ErrEmptySystem
	}
	if len(r.Weights) == 0 {
		return fmt.Errorf("%w: %s", ErrNoWeights, r.System)
	}
	for name := range r.Weights {
		if _, err := gamelog.ParseStatName(string(name)); err != nil {
			return fmt.Errorf("%w: system=%s stat=%s", ErrUnknownStat, r.System, name)
		}
	}
	return nil
}

// Score is the weighted sum of stats rounded to two decimals. Terms are
// summed in gamelog.AllStats order so repeated calls agree bit for bit.
func (r RuleSet) Score(stats gamelog.Statistics) float64 {
	var total float64
	for _, name := range gamelog.AllStats {
		weight, ok := r.Weights[name]
		if !ok || weight == 0 {
			continue
		}
		total += weight * stats.Value(name)
	}
	return math.Round(total*100) / 100
}

func ValidateRuleSets(sets []RuleSet) error {
	seen := make(map[string]struct{}, len(sets))
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			return err
		}
		if _, dup := seen[set.System]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, set.System)
		}
		seen[set.System] = struct{}{}
	}
	return nil
}

// SortRuleSets orders rule sets by system name.
func SortRuleSets(sets []RuleSet) []RuleSet {
	out := append([]RuleSet(nil), sets...)
	sort.Slice(out, func(i, j int) bool { return out[i].System < out[j].System })
	return out
}

// DefaultRuleSets returns the ESPN points league and NBA salary-cap weights.
func DefaultRuleSets() []RuleSet {
	return []RuleSet{
		{
			System: SystemESPN,
			Weights: map[gamelog.StatName]float64{
				gamelog.StatThreesMade:          1,
				gamelog.StatFieldGoalsAttempted: -1,
				gamelog.StatFieldGoalsMade:      2,
				gamelog.StatFreeThrowsAttempted: -1,
				gamelog.StatFreeThrowsMade:      1,
				gamelog.StatRebounds:            1,
				gamelog.StatAssists:             2,
				gamelog.StatSteals:              4,
				gamelog.StatBlocks:              4,
				gamelog.StatTurnovers:           -2,
			},
		},
		{
			System: SystemNBASalaryCap,
			Weights: map[gamelog.StatName]float64{
				gamelog.StatPoints:    1,
				gamelog.StatRebounds:  1.2,
				gamelog.StatAssists:   1.5,
				gamelog.StatBlocks:    3,
				gamelog.StatSteals:    3,
				gamelog.StatTurnovers: -1,
			},
		},
	}
}

// Record is the fantasy score of one game log under one system.
type Record struct {
	ID         string
	LogID      string
	GameID     string
	GameDate   time.Time
	PlayerID   string
	System     string
	Points     float64
	ComputedAt time.Time
}

func RecordID(logID, system string) string {
	return logID + ":" + system
}

type Filter struct {
	PlayerID string
	System   string
	From     time.Time
	To       time.Time
	Limit    int
}

// PlayerAverage summarizes one player's scores under one system.
type PlayerAverage struct {
	PlayerID   string
	PlayerName string
	System     string
	Games      int
	AvgPoints  float64
	MaxPoints  float64
}

type HomeAwaySplit struct {
	PlayerID   string
	PlayerName string
	System     string
	HomeGames  int
	HomeAvg    float64
	AwayGames  int
	AwayAvg    float64
}
