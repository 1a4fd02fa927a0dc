package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "games:range", 1)
	_, ok := store.Get(context.Background(), "games:range")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = store.Get(context.Background(), "games:range")
	require.False(t, ok)
	require.Zero(t, store.Len())
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "points:avg:espn", 1)
	store.Set(ctx, "points:splits:espn", 2)
	store.Set(ctx, "games:range", 3)

	store.DeletePrefix(ctx, "points:")
	require.Equal(t, 1, store.Len())
	_, ok := store.Get(ctx, "games:range")
	require.True(t, ok)
}

func TestStore_GetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.GetOrLoad(context.Background(), "points:avg", func(context.Context) (any, error) {
				loads.Add(1)
				<-release
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("unexpected result %v %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, loads.Load())
	v, err := store.GetOrLoad(context.Background(), "points:avg", func(context.Context) (any, error) {
		return nil, errors.New("should not load")
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestStore_GetOrLoadDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	_, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	require.Zero(t, store.Len())
}

func TestStore_LoadRacingFlushIsNotStored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)

	v, err := store.GetOrLoad(ctx, "games:range", func(context.Context) (any, error) {
		// A sync pass commits while the read is in flight.
		store.Flush(ctx)
		return "stale", nil
	})
	require.NoError(t, err)
	require.Equal(t, "stale", v)
	require.Zero(t, store.Len())

	v, err = store.GetOrLoad(ctx, "games:range", func(context.Context) (any, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	require.Equal(t, "fresh", v)
	require.Equal(t, 1, store.Len())
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "points:avg:espn", 1)

	_, _ = store.Get(ctx, "points:avg:espn")
	_, _ = store.Get(ctx, "points:splits:espn")
	store.DeletePrefix(ctx, "points:")

	require.Equal(t, Stats{Hits: 1, Misses: 1, Invalidations: 1}, store.Stats())
}
