package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

// passLockKey identifies the sync pass advisory lock.
const passLockKey int64 = 0x6e62615f73796e63

type Store struct {
	db   *sqlx.DB
	runs *SyncRunRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, runs: NewSyncRunRepository(db)}
}

func (s *Store) Repositories() usecase.SyncRepositories {
	return repositoriesFor(s.db)
}

func (s *Store) Runs() *SyncRunRepository {
	return s.runs
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos usecase.SyncRepositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, repositoriesFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync tx: %w", err)
	}
	return nil
}

// TryLockPass takes a session advisory lock on a dedicated connection so
// that passes running in other processes are excluded too.
func (s *Store) TryLockPass(ctx context.Context) (func(), bool, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowxContext(ctx, `SELECT pg_try_advisory_lock($1)`, passLockKey).Scan(&acquired); err != nil {
		_ = conn.Close()
		return func() {}, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return func() {}, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, _ = conn.ExecContext(unlockCtx, `SELECT pg_advisory_unlock($1)`, passLockKey)
			_ = conn.Close()
		})
	}
	return release, true, nil
}

func repositoriesFor(db queryer) usecase.SyncRepositories {
	return usecase.SyncRepositories{
		Games:  NewGameRepository(db),
		Logs:   NewGameLogRepository(db),
		Points: NewFantasyPointsRepository(db),
		State:  NewSyncStateRepository(db),
	}
}
