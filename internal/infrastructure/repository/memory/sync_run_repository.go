package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
)

type SyncRunRepository struct {
	mu   sync.RWMutex
	runs []syncstate.Run
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{}
}

func (r *SyncRunRepository) Record(_ context.Context, run syncstate.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.runs {
		if r.runs[i].RunID == run.RunID {
			r.runs[i] = run
			return nil
		}
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *SyncRunRepository) ListRecent(_ context.Context, limit int) ([]syncstate.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]syncstate.Run(nil), r.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
