package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/resilience"
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Stats is a snapshot of lookup counters since the store was created.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
}

// Store is a process-local read-through cache. A zero ttl keeps entries
// until they are invalidated.
//
// Every invalidation bumps a generation; a load that started under an older
// generation returns its result to the caller but does not store it, so a
// read racing a sync commit cannot repopulate pre-commit rows.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	generation uint64
	stats      Stats

	ttl    time.Duration
	now    func() time.Time
	flight resilience.SingleFlight[any]
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	value, ok, _ := s.lookup(key)
	return value, ok
}

func (s *Store) lookup(key string) (any, bool, uint64) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && e.expired(now) {
		delete(s.entries, key)
		ok = false
	}
	if ok {
		s.stats.Hits++
		return e.value, true, s.generation
	}
	s.stats.Misses++
	return nil, false, s.generation
}

func (s *Store) Set(_ context.Context, key string, value any) {
	s.mu.Lock()
	s.put(key, value)
	s.mu.Unlock()
}

// put requires s.mu held for writing.
func (s *Store) put(key string, value any) {
	if key == "" {
		return
	}
	e := entry{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = e
}

// DeletePrefix drops every key starting with prefix.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.generation++
	s.stats.Invalidations++
	s.mu.Unlock()
}

// Flush drops every entry.
func (s *Store) Flush(_ context.Context) {
	s.mu.Lock()
	clear(s.entries)
	s.generation++
	s.stats.Invalidations++
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// GetOrLoad collapses concurrent misses for key into one loader call.
// Errors are returned but never cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, errors.New("cache: loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	value, ok, gen := s.lookup(key)
	if ok {
		return value, nil
	}

	flightKey := strconv.FormatUint(gen, 10) + "|" + key
	value, err, _ := s.flight.Do(flightKey, func() (any, error) {
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.generation == gen {
			s.put(key, loaded)
		}
		s.mu.Unlock()
		return loaded, nil
	})
	return value, err
}
