package memory

import (
	"context"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
)

type SyncStateRepository struct {
	view view
}

func (r *SyncStateRepository) Get(_ context.Context) (syncstate.State, bool, error) {
	r.view.mu.RLock()
	defer r.view.mu.RUnlock()

	state := r.view.data().state
	if state == nil {
		return syncstate.State{}, false, nil
	}
	return *state, true, nil
}

func (r *SyncStateRepository) Save(_ context.Context, state syncstate.State) error {
	if err := r.view.checkWrite("sync_state.save"); err != nil {
		return err
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()

	r.view.data().state = &state
	return nil
}
