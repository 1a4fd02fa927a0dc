package espn

import (
	"strconv"
	"strings"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
)

type scoreboardEnvelope struct {
	Events []event `json:"events"`
}

type event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Status       eventStatus   `json:"status"`
	Competitions []competition `json:"competitions"`
}

type eventStatus struct {
	Type statusType `json:"type"`
}

type statusType struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

// gameStatus maps ESPN's status block onto the domain statuses.
func (s statusType) gameStatus() game.Status {
	if s.Completed {
		if status := game.NormalizeStatus(s.Name); status == game.StatusPostponed {
			return status
		}
		return game.StatusFinal
	}
	if status := game.NormalizeStatus(s.Name); status != game.StatusScheduled {
		return status
	}
	return game.NormalizeStatus(s.State)
}

type competition struct {
	Status      *eventStatus `json:"status"`
	Competitors []competitor `json:"competitors"`
}

type competitor struct {
	HomeAway string  `json:"homeAway"`
	Score    flexInt `json:"score"`
	Team     team    `json:"team"`
}

type team struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

type summaryEnvelope struct {
	Header   summaryHeader `json:"header"`
	BoxScore boxScore      `json:"boxscore"`
}

type summaryHeader struct {
	Competitions []competition `json:"competitions"`
}

func (s summaryEnvelope) status() game.Status {
	for _, comp := range s.Header.Competitions {
		if comp.Status != nil {
			return comp.Status.Type.gameStatus()
		}
	}
	return game.StatusScheduled
}

type boxScore struct {
	Players []teamPlayers `json:"players"`
}

type teamPlayers struct {
	Team       team        `json:"team"`
	Statistics []statGroup `json:"statistics"`
}

type statGroup struct {
	Names    []string      `json:"names"`
	Labels   []string      `json:"labels"`
	Athletes []athleteLine `json:"athletes"`
}

type athleteLine struct {
	Athlete    athlete  `json:"athlete"`
	DidNotPlay bool     `json:"didNotPlay"`
	Starter    bool     `json:"starter"`
	Stats      []string `json:"stats"`
}

type athlete struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ShortName   string `json:"shortName"`
}

// flexInt accepts both "112" and 112; ESPN sends scores as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}
