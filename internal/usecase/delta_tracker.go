package usecase

import (
	"sort"
	"sync"
)

type DeltaKind string

const (
	DeltaNew     DeltaKind = "new"
	DeltaChanged DeltaKind = "changed"
)

// DeltaTracker is the set of game log ids touched by the current pass.
// Entries are unique; a log first recorded as new stays new.
type DeltaTracker struct {
	mu      sync.Mutex
	kinds   map[string]DeltaKind
	pending []string
}

func NewDeltaTracker() *DeltaTracker {
	return &DeltaTracker{kinds: make(map[string]DeltaKind)}
}

// Record adds id and reports whether it was not already tracked.
func (t *DeltaTracker) Record(id string, kind DeltaKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.kinds[id]; ok {
		return false
	}
	t.kinds[id] = kind
	t.pending = append(t.pending, id)
	return true
}

// Affected returns every tracked id, sorted.
func (t *DeltaTracker) Affected() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.kinds))
	for id := range t.kinds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Drain returns, sorted, the ids recorded since the previous Drain. They
// remain part of Affected.
func (t *DeltaTracker) Drain() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.pending
	t.pending = nil
	sort.Strings(out)
	return out
}

func (t *DeltaTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.kinds)
}

func (t *DeltaTracker) Counts() (newCount, changedCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, kind := range t.kinds {
		if kind == DeltaNew {
			newCount++
		} else {
			changedCount++
		}
	}
	return newCount, changedCount
}

func (t *DeltaTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.kinds = make(map[string]DeltaKind)
	t.pending = nil
}
