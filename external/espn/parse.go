package espn

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

// Box-score column labels. Columns are looked up by label because ESPN
// reorders them between seasons.
const (
	labelMinutes   = "MIN"
	labelPoints    = "PTS"
	labelFG        = "FG"
	label3PT       = "3PT"
	labelFT        = "FT"
	labelOffReb    = "OREB"
	labelDefReb    = "DREB"
	labelReb       = "REB"
	labelAssists   = "AST"
	labelSteals    = "STL"
	labelBlocks    = "BLK"
	labelTurnovers = "TO"
	labelFouls     = "PF"
	labelPlusMinus = "+/-"
)

// ESPN abbreviations that differ from the ones stored.
var teamAliases = map[string]string{
	"GS":   "GSW",
	"NY":   "NYK",
	"NO":   "NOP",
	"SA":   "SAS",
	"UTAH": "UTA",
	"WSH":  "WAS",
}

func normalizeTeam(abbr string) string {
	abbr = game.NormalizeTeam(abbr)
	if alias, ok := teamAliases[abbr]; ok {
		return alias
	}
	return abbr
}

func parseEvent(ev event) (usecase.SourceGame, bool) {
	if strings.TrimSpace(ev.ID) == "" || len(ev.Competitions) == 0 {
		return usecase.SourceGame{}, false
	}

	item := usecase.SourceGame{
		ExternalID: strings.TrimSpace(ev.ID),
		Status:     ev.Status.Type.gameStatus(),
		StartsAt:   parseEventTime(ev.Date),
	}
	for _, comp := range ev.Competitions[0].Competitors {
		switch strings.ToLower(comp.HomeAway) {
		case "home":
			item.HomeTeam = normalizeTeam(comp.Team.Abbreviation)
			item.HomeScore = int(comp.Score)
		case "away":
			item.AwayTeam = normalizeTeam(comp.Team.Abbreviation)
			item.AwayScore = int(comp.Score)
		}
	}
	if item.HomeTeam == "" || item.AwayTeam == "" {
		return usecase.SourceGame{}, false
	}
	return item, true
}

func parseEventTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	// ESPN usually drops the seconds: 2024-01-03T00:30Z
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02T15:04Z"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseBoxScore(box boxScore) []usecase.SourcePlayerLog {
	out := make([]usecase.SourcePlayerLog, 0, 32)
	for _, side := range box.Players {
		teamAbbr := normalizeTeam(side.Team.Abbreviation)
		if teamAbbr == "" || len(side.Statistics) == 0 {
			continue
		}
		group := side.Statistics[0]
		columns := columnIndex(group)

		for _, line := range group.Athletes {
			playerID := strings.TrimSpace(line.Athlete.ID)
			if line.DidNotPlay || playerID == "" || len(line.Stats) == 0 {
				continue
			}
			out = append(out, usecase.SourcePlayerLog{
				PlayerID:   playerID,
				PlayerName: firstNonEmpty(line.Athlete.DisplayName, line.Athlete.ShortName),
				Team:       teamAbbr,
				Stats:      parseStatLine(columns, line.Stats),
			})
		}
	}
	return out
}

// columnIndex prefers labels and falls back to names, which ESPN fills
// with the same abbreviations on older payloads.
func columnIndex(group statGroup) map[string]int {
	source := group.Labels
	if len(source) == 0 {
		source = group.Names
	}
	index := make(map[string]int, len(source))
	for i, label := range source {
		index[strings.ToUpper(strings.TrimSpace(label))] = i
	}
	return index
}

func parseStatLine(columns map[string]int, values []string) gamelog.Statistics {
	get := func(label string) string {
		if idx, ok := columns[label]; ok && idx < len(values) {
			return strings.TrimSpace(values[idx])
		}
		return ""
	}

	fgm, fga := parseMadeAttempted(get(labelFG))
	tpm, tpa := parseMadeAttempted(get(label3PT))
	ftm, fta := parseMadeAttempted(get(labelFT))

	stats := gamelog.Statistics{
		Minutes:             parseMinutes(get(labelMinutes)),
		Points:              parseCount(get(labelPoints)),
		FieldGoalsMade:      fgm,
		FieldGoalsAttempted: fga,
		ThreesMade:          tpm,
		ThreesAttempted:     tpa,
		FreeThrowsMade:      ftm,
		FreeThrowsAttempted: fta,
		OffensiveRebounds:   parseCount(get(labelOffReb)),
		DefensiveRebounds:   parseCount(get(labelDefReb)),
		Rebounds:            parseCount(get(labelReb)),
		Assists:             parseCount(get(labelAssists)),
		Steals:              parseCount(get(labelSteals)),
		Blocks:              parseCount(get(labelBlocks)),
		Turnovers:           parseCount(get(labelTurnovers)),
		PersonalFouls:       parseCount(get(labelFouls)),
		PlusMinus:           parseCount(get(labelPlusMinus)),
	}
	return stats.Normalize()
}

// parseMinutes accepts "34", "34.5" and "34:30".
func parseMinutes(raw string) float64 {
	if raw == "" || raw == "--" {
		return 0
	}
	if mins, secs, ok := strings.Cut(raw, ":"); ok {
		m, _ := strconv.Atoi(mins)
		s, _ := strconv.Atoi(secs)
		return float64(m) + float64(s)/60
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseMadeAttempted splits "10-21" into made and attempted.
func parseMadeAttempted(raw string) (int, int) {
	made, attempted, ok := strings.Cut(raw, "-")
	if !ok {
		return 0, 0
	}
	return parseCount(made), parseCount(attempted)
}

func parseCount(raw string) int {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if raw == "" || raw == "--" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
