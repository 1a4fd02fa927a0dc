package resilience

import "sync/atomic"

// Guard admits at most one holder at a time and never blocks.
type Guard struct {
	held atomic.Bool
}

// TryAcquire reports whether the caller now owns the guard. The returned
// release is idempotent.
func (g *Guard) TryAcquire() (release func(), ok bool) {
	if !g.held.CompareAndSwap(false, true) {
		return func() {}, false
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			g.held.Store(false)
		}
	}, true
}

func (g *Guard) Held() bool {
	return g.held.Load()
}
