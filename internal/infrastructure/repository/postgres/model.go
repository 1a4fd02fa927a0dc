package postgres

import (
	"database/sql"
	"time"
)

type gameTableModel struct {
	ID         string         `db:"id"`
	GameDate   time.Time      `db:"game_date"`
	HomeTeam   string         `db:"home_team"`
	AwayTeam   string         `db:"away_team"`
	Status     string         `db:"status"`
	ExternalID sql.NullString `db:"external_id"`
	HomeScore  int            `db:"home_score"`
	AwayScore  int            `db:"away_score"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type gameLogTableModel struct {
	ID                  string    `db:"id"`
	GameID              string    `db:"game_id"`
	GameDate            time.Time `db:"game_date"`
	PlayerID            string    `db:"player_id"`
	PlayerName          string    `db:"player_name"`
	Team                string    `db:"team"`
	Opponent            string    `db:"opponent"`
	IsHome              bool      `db:"is_home"`
	Minutes             float64   `db:"minutes"`
	Points              int       `db:"pts"`
	FieldGoalsMade      int       `db:"fgm"`
	FieldGoalsAttempted int       `db:"fga"`
	ThreesMade          int       `db:"fg3m"`
	ThreesAttempted     int       `db:"fg3a"`
	FreeThrowsMade      int       `db:"ftm"`
	FreeThrowsAttempted int       `db:"fta"`
	OffensiveRebounds   int       `db:"oreb"`
	DefensiveRebounds   int       `db:"dreb"`
	Rebounds            int       `db:"reb"`
	Assists             int       `db:"ast"`
	Steals              int       `db:"stl"`
	Blocks              int       `db:"blk"`
	Turnovers           int       `db:"tov"`
	PersonalFouls       int       `db:"pf"`
	PlusMinus           int       `db:"plus_minus"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

type fantasyPointsTableModel struct {
	ID         string    `db:"id"`
	LogID      string    `db:"log_id"`
	GameID     string    `db:"game_id"`
	GameDate   time.Time `db:"game_date"`
	PlayerID   string    `db:"player_id"`
	System     string    `db:"system"`
	Points     float64   `db:"points"`
	ComputedAt time.Time `db:"computed_at"`
}

type playerAverageRow struct {
	PlayerID   string  `db:"player_id"`
	PlayerName string  `db:"player_name"`
	Games      int     `db:"games"`
	AvgPoints  float64 `db:"avg_points"`
	MaxPoints  float64 `db:"max_points"`
}

type homeAwaySplitRow struct {
	PlayerID   string  `db:"player_id"`
	PlayerName string  `db:"player_name"`
	HomeGames  int     `db:"home_games"`
	HomeAvg    float64 `db:"home_avg"`
	AwayGames  int     `db:"away_games"`
	AwayAvg    float64 `db:"away_avg"`
}

type syncStateTableModel struct {
	ID             int            `db:"id"`
	LastSyncedDate time.Time      `db:"last_synced_date"`
	LastGameID     sql.NullString `db:"last_game_id"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type syncRunTableModel struct {
	RunID         string         `db:"run_id"`
	Status        string         `db:"status"`
	PassDate      sql.NullTime   `db:"pass_date"`
	SyncedFrom    sql.NullString `db:"synced_from"`
	SyncedThrough sql.NullString `db:"synced_through"`
	Report        string         `db:"report"`
	ErrorMessage  sql.NullString `db:"error_message"`
	StartedAt     time.Time      `db:"started_at"`
	FinishedAt    time.Time      `db:"finished_at"`
	TraceID       sql.NullString `db:"trace_id"`
}
