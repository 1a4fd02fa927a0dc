package httpapi

import (
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

type listDTO[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type gameDTO struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Status     string `json:"status"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
	ExternalID string `json:"external_id,omitempty"`
}

type statisticsDTO struct {
	Minutes             float64 `json:"minutes"`
	Points              int     `json:"points"`
	FieldGoalsMade      int     `json:"field_goals_made"`
	FieldGoalsAttempted int     `json:"field_goals_attempted"`
	ThreesMade          int     `json:"threes_made"`
	ThreesAttempted     int     `json:"threes_attempted"`
	FreeThrowsMade      int     `json:"free_throws_made"`
	FreeThrowsAttempted int     `json:"free_throws_attempted"`
	OffensiveRebounds   int     `json:"offensive_rebounds"`
	DefensiveRebounds   int     `json:"defensive_rebounds"`
	Rebounds            int     `json:"rebounds"`
	Assists             int     `json:"assists"`
	Steals              int     `json:"steals"`
	Blocks              int     `json:"blocks"`
	Turnovers           int     `json:"turnovers"`
	PersonalFouls       int     `json:"personal_fouls"`
	PlusMinus           int     `json:"plus_minus"`
}

type gameLogDTO struct {
	ID         string        `json:"id"`
	GameID     string        `json:"game_id"`
	GameDate   string        `json:"game_date"`
	PlayerID   string        `json:"player_id"`
	PlayerName string        `json:"player_name"`
	Team       string        `json:"team"`
	Opponent   string        `json:"opponent"`
	IsHome     bool          `json:"is_home"`
	Stats      statisticsDTO `json:"stats"`
}

type fantasyPointsDTO struct {
	GameID     string    `json:"game_id"`
	GameDate   string    `json:"game_date"`
	PlayerID   string    `json:"player_id"`
	System     string    `json:"system"`
	Points     float64   `json:"points"`
	ComputedAt time.Time `json:"computed_at"`
}

type playerAverageDTO struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	System     string  `json:"system"`
	Games      int     `json:"games"`
	AvgPoints  float64 `json:"avg_points"`
	MaxPoints  float64 `json:"max_points"`
}

type homeAwaySplitDTO struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	System     string  `json:"system"`
	HomeGames  int     `json:"home_games"`
	HomeAvg    float64 `json:"home_avg"`
	AwayGames  int     `json:"away_games"`
	AwayAvg    float64 `json:"away_avg"`
}

type syncStateDTO struct {
	LastSyncedDate string    `json:"last_synced_date"`
	LastGameID     string    `json:"last_game_id,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
	Phase          string    `json:"phase,omitempty"`
}

type syncRunDTO struct {
	RunID         string              `json:"run_id"`
	Status        string              `json:"status"`
	CurrentDate   string              `json:"current_date"`
	SyncedFrom    string              `json:"synced_from,omitempty"`
	SyncedThrough string              `json:"synced_through,omitempty"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	TraceID       string              `json:"trace_id,omitempty"`
	Report        *usecase.SyncReport `json:"report,omitempty"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func gameToDTO(v game.Game) gameDTO {
	return gameDTO{
		ID:         v.ID,
		Date:       formatDate(v.Date),
		HomeTeam:   v.HomeTeam,
		AwayTeam:   v.AwayTeam,
		Status:     string(v.Status),
		HomeScore:  v.HomeScore,
		AwayScore:  v.AwayScore,
		ExternalID: v.ExternalID,
	}
}

func statisticsToDTO(s gamelog.Statistics) statisticsDTO {
	return statisticsDTO{
		Minutes:             s.Minutes,
		Points:              s.Points,
		FieldGoalsMade:      s.FieldGoalsMade,
		FieldGoalsAttempted: s.FieldGoalsAttempted,
		ThreesMade:          s.ThreesMade,
		ThreesAttempted:     s.ThreesAttempted,
		FreeThrowsMade:      s.FreeThrowsMade,
		FreeThrowsAttempted: s.FreeThrowsAttempted,
		OffensiveRebounds:   s.OffensiveRebounds,
		DefensiveRebounds:   s.DefensiveRebounds,
		Rebounds:            s.Rebounds,
		Assists:             s.Assists,
		Steals:              s.Steals,
		Blocks:              s.Blocks,
		Turnovers:           s.Turnovers,
		PersonalFouls:       s.PersonalFouls,
		PlusMinus:           s.PlusMinus,
	}
}

func gameLogToDTO(v gamelog.Log) gameLogDTO {
	return gameLogDTO{
		ID:         v.ID,
		GameID:     v.GameID,
		GameDate:   formatDate(v.GameDate),
		PlayerID:   v.PlayerID,
		PlayerName: v.PlayerName,
		Team:       v.Team,
		Opponent:   v.Opponent,
		IsHome:     v.IsHome,
		Stats:      statisticsToDTO(v.Stats),
	}
}

func fantasyPointsToDTO(v scoring.Record) fantasyPointsDTO {
	return fantasyPointsDTO{
		GameID:     v.GameID,
		GameDate:   formatDate(v.GameDate),
		PlayerID:   v.PlayerID,
		System:     v.System,
		Points:     v.Points,
		ComputedAt: v.ComputedAt,
	}
}

func playerAverageToDTO(v scoring.PlayerAverage) playerAverageDTO {
	return playerAverageDTO{
		PlayerID:   v.PlayerID,
		PlayerName: v.PlayerName,
		System:     v.System,
		Games:      v.Games,
		AvgPoints:  v.AvgPoints,
		MaxPoints:  v.MaxPoints,
	}
}

func homeAwaySplitToDTO(v scoring.HomeAwaySplit) homeAwaySplitDTO {
	return homeAwaySplitDTO{
		PlayerID:   v.PlayerID,
		PlayerName: v.PlayerName,
		System:     v.System,
		HomeGames:  v.HomeGames,
		HomeAvg:    v.HomeAvg,
		AwayGames:  v.AwayGames,
		AwayAvg:    v.AwayAvg,
	}
}

func syncStateToDTO(v syncstate.State) syncStateDTO {
	return syncStateDTO{
		LastSyncedDate: formatDate(v.LastSyncedDate),
		LastGameID:     v.LastGameID,
		UpdatedAt:      v.UpdatedAt,
	}
}

// syncRunToDTO inlines the stored report when it decodes; a corrupt report
// is dropped rather than failing the listing.
func syncRunToDTO(v syncstate.Run) syncRunDTO {
	out := syncRunDTO{
		RunID:         v.RunID,
		Status:        string(v.Status),
		CurrentDate:   formatDate(v.CurrentDate),
		SyncedFrom:    v.SyncedFrom,
		SyncedThrough: v.SyncedThrough,
		ErrorMessage:  v.ErrorMessage,
		StartedAt:     v.StartedAt,
		FinishedAt:    v.FinishedAt,
		TraceID:       v.TraceID,
	}
	if len(v.Report) > 0 {
		var report usecase.SyncReport
		if err := sonic.Unmarshal(v.Report, &report); err == nil {
			out.Report = &report
		}
	}
	return out
}
