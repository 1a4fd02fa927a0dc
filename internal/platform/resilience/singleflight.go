package resilience

import (
	"context"
	"sync"
)

// SingleFlight collapses concurrent calls that share a key into one execution.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*flight[T]
}

type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Do returns the result of fn for key; shared reports whether the caller
// piggybacked on an execution started by someone else.
func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	c, leader := g.join(key)
	if !leader {
		<-c.done
		return c.val, c.err, true
	}

	defer g.finish(key, c)
	c.val, c.err = fn()
	return c.val, c.err, false
}

// DoContext is Do with a per-caller wait: fn runs in its own goroutine and
// every caller, the one that started it included, stops waiting when its ctx
// ends. fn must not depend on any single caller's ctx.
func (g *SingleFlight[T]) DoContext(ctx context.Context, key string, fn func() (T, error)) (val T, err error, shared bool) {
	c, leader := g.join(key)
	if leader {
		go func() {
			defer g.finish(key, c)
			c.val, c.err = fn()
		}()
	}

	select {
	case <-c.done:
		return c.val, c.err, !leader
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err(), !leader
	}
}

func (g *SingleFlight[T]) join(key string) (*flight[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]*flight[T])
	}
	if c, ok := g.calls[key]; ok {
		return c, false
	}
	c := &flight[T]{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *SingleFlight[T]) finish(key string, c *flight[T]) {
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(c.done)
}
