package memory

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/game"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/gamelog"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/scoring"
	"github.com/riskibarqy/nba-fantasy-sync/internal/domain/syncstate"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

type dataset struct {
	games  map[string]game.Game
	logs   map[string]gamelog.Log
	points map[string]scoring.Record
	state  *syncstate.State
}

func newDataset() *dataset {
	return &dataset{
		games:  make(map[string]game.Game),
		logs:   make(map[string]gamelog.Log),
		points: make(map[string]scoring.Record),
	}
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		games:  maps.Clone(d.games),
		logs:   maps.Clone(d.logs),
		points: maps.Clone(d.points),
	}
	if d.state != nil {
		state := *d.state
		out.state = &state
	}
	return out
}

// view is what a repository reads and writes through. Committed views share
// the store lock; transaction views own a private snapshot.
type view struct {
	mu   *sync.RWMutex
	data func() *dataset
	// failWrite, when set, is consulted before every write.
	failWrite func(op string) error
}

func (v view) checkWrite(op string) error {
	if v.failWrite == nil {
		return nil
	}
	return v.failWrite(op)
}

// Store is an in-process SyncStore. Transactions work on a copy that
// replaces the committed data only when the callback succeeds.
type Store struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex
	data   *dataset

	passLocked atomic.Bool
	failWrite  atomic.Pointer[func(op string) error]

	runs *SyncRunRepository
}

func NewStore() *Store {
	return &Store{data: newDataset(), runs: NewSyncRunRepository()}
}

func (s *Store) committedView() view {
	return view{
		mu: &s.dataMu,
		data: func() *dataset {
			return s.data
		},
	}
}

func (s *Store) Repositories() usecase.SyncRepositories {
	return repositoriesFor(s.committedView())
}

func (s *Store) Runs() *SyncRunRepository {
	return s.runs
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos usecase.SyncRepositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.dataMu.RLock()
	snapshot := s.data.clone()
	s.dataMu.RUnlock()

	txView := view{
		mu:   &sync.RWMutex{},
		data: func() *dataset { return snapshot },
	}
	if hook := s.failWrite.Load(); hook != nil {
		txView.failWrite = *hook
	}

	if err := fn(ctx, repositoriesFor(txView)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.dataMu.Lock()
	s.data = snapshot
	s.dataMu.Unlock()
	return nil
}

func (s *Store) TryLockPass(_ context.Context) (func(), bool, error) {
	if !s.passLocked.CompareAndSwap(false, true) {
		return func() {}, false, nil
	}
	var once sync.Once
	return func() { once.Do(func() { s.passLocked.Store(false) }) }, true, nil
}

// FailWrites makes transactional writes return whatever hook returns; nil
// clears the hook.
func (s *Store) FailWrites(hook func(op string) error) {
	if hook == nil {
		s.failWrite.Store(nil)
		return
	}
	s.failWrite.Store(&hook)
}

// DeleteGame removes a game outside any sync pass, leaving its logs behind.
func (s *Store) DeleteGame(id string) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	delete(s.data.games, id)
}

func repositoriesFor(v view) usecase.SyncRepositories {
	return usecase.SyncRepositories{
		Games:  &GameRepository{view: v},
		Logs:   &GameLogRepository{view: v},
		Points: &FantasyPointsRepository{view: v},
		State:  &SyncStateRepository{view: v},
	}
}
