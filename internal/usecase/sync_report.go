package usecase

import (
	"fmt"
	"time"
)

type SyncOutcome string

const (
	SyncOutcomeCompleted SyncOutcome = "completed"
	SyncOutcomeNoop      SyncOutcome = "noop"
	SyncOutcomeFailed    SyncOutcome = "failed"
	SyncOutcomeRejected  SyncOutcome = "rejected"
)

// SyncReport summarizes one pass. Advanced and Reason always say whether
// SyncState moved and, when it did not, why.
type SyncReport struct {
	RunID              string      `json:"run_id"`
	Outcome            SyncOutcome `json:"outcome"`
	CurrentDate        string      `json:"current_date"`
	PreviousSyncedDate string      `json:"previous_synced_date,omitempty"`
	SyncedThrough      string      `json:"synced_through,omitempty"`
	Advanced           bool        `json:"advanced"`
	Reason             string      `json:"reason,omitempty"`
	FrontierSize       int         `json:"frontier_size"`
	DaysProcessed      int         `json:"days_processed"`
	GamesMerged        int         `json:"games_merged"`
	LogsUpdated        int         `json:"logs_updated"`
	ScoresRecomputed   int         `json:"scores_recomputed"`
	Inconsistencies    int         `json:"inconsistencies"`
	PendingDays        []string    `json:"pending_days,omitempty"`
	Days               []DayReport `json:"days,omitempty"`
	StartedAt          time.Time   `json:"started_at"`
	FinishedAt         time.Time   `json:"finished_at"`

	currentDay time.Time
}

type DayReport struct {
	Date             string `json:"date"`
	Games            int    `json:"games"`
	GamesMerged      int    `json:"games_merged"`
	LogsInserted     int    `json:"logs_inserted"`
	LogsChanged      int    `json:"logs_changed"`
	ScoresRecomputed int    `json:"scores_recomputed"`
	Inconsistencies  int    `json:"inconsistencies"`
	Settled          bool   `json:"settled"`
	Advanced         bool   `json:"advanced"`
}

// Updates is the number of rows written by the pass.
func (r SyncReport) Updates() int {
	return r.GamesMerged + r.LogsUpdated + r.ScoresRecomputed
}

func (r SyncReport) Succeeded() bool {
	return r.Outcome == SyncOutcomeCompleted || r.Outcome == SyncOutcomeNoop
}

func (r SyncReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r SyncReport) Summary() string {
	if !r.Succeeded() {
		return fmt.Sprintf("sync %s: %s", r.Outcome, r.Reason)
	}
	return fmt.Sprintf(
		"sync %s: %d days, %d games merged, %d logs updated, %d scores recomputed, %d inconsistencies",
		r.Outcome, r.DaysProcessed, r.GamesMerged, r.LogsUpdated, r.ScoresRecomputed, r.Inconsistencies,
	)
}

func (r *SyncReport) addDay(day DayReport) {
	r.Days = append(r.Days, day)
	r.DaysProcessed++
	r.GamesMerged += day.GamesMerged
	r.LogsUpdated += day.LogsInserted + day.LogsChanged
	r.ScoresRecomputed += day.ScoresRecomputed
	r.Inconsistencies += day.Inconsistencies
	if !day.Settled {
		r.PendingDays = append(r.PendingDays, day.Date)
	}
	if day.Advanced {
		r.Advanced = true
		r.SyncedThrough = day.Date
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
