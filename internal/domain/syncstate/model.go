package syncstate

import "time"

// State marks how far the store has been synchronized. There is one row.
type State struct {
	LastSyncedDate time.Time
	LastGameID     string
	UpdatedAt      time.Time
}

type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusNoop      RunStatus = "noop"
	RunStatusFailed    RunStatus = "failed"
	RunStatusRejected  RunStatus = "rejected"
)

// Run is the audit entry written after every pass.
type Run struct {
	RunID         string
	Status        RunStatus
	CurrentDate   time.Time
	SyncedFrom    string
	SyncedThrough string
	Report        []byte
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
	TraceID       string
}
