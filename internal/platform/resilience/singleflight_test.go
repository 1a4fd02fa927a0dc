package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_DoCollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight[[]string]
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	var sharedCount int32
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			games, err, shared := g.Do("scoreboard:20240102", func() ([]string, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return []string{"401585000"}, nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if len(games) != 1 {
				t.Errorf("unexpected games: %v", games)
			}
			if shared {
				atomic.AddInt32(&sharedCount, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
	if got := atomic.LoadInt32(&sharedCount); got != workers-1 {
		t.Fatalf("expected %d shared callers, got %d", workers-1, got)
	}
}

func TestSingleFlight_ForgetsKeyAfterCompletion(t *testing.T) {
	var g SingleFlight[int]
	boom := errors.New("boom")

	if _, err, _ := g.Do("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	v, err, shared := g.Do("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 || shared {
		t.Fatalf("expected fresh execution, got v=%d err=%v shared=%v", v, err, shared)
	}
}

func TestSingleFlight_DoContextWaiterKeepsOwnDeadline(t *testing.T) {
	var g SingleFlight[string]
	release := make(chan struct{})
	started := make(chan struct{})

	leaderDone := make(chan error, 1)
	go func() {
		v, err, _ := g.DoContext(context.Background(), "summary:401", func() (string, error) {
			close(started)
			<-release
			return "box", nil
		})
		if err == nil && v != "box" {
			err = errors.New("unexpected value " + v)
		}
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err, shared := g.DoContext(ctx, "summary:401", func() (string, error) {
		t.Error("second caller must not start its own execution")
		return "", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) || !shared {
		t.Fatalf("expected shared deadline error, got err=%v shared=%v", err, shared)
	}

	close(release)
	if err := <-leaderDone; err != nil {
		t.Fatalf("leader should still get the result: %v", err)
	}
}

func TestSingleFlight_DoContextLeaderCancelDoesNotFailWaiters(t *testing.T) {
	var g SingleFlight[string]
	release := make(chan struct{})
	started := make(chan struct{})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err, _ := g.DoContext(leaderCtx, "summary:401", func() (string, error) {
			close(started)
			<-release
			return "box", nil
		})
		leaderDone <- err
	}()
	<-started

	waiterDone := make(chan string, 1)
	go func() {
		v, err, _ := g.DoContext(context.Background(), "summary:401", func() (string, error) {
			return "second", nil
		})
		if err != nil {
			v = "error: " + err.Error()
		}
		waiterDone <- v
	}()

	cancelLeader()
	if err := <-leaderDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected leader to see its own cancel, got %v", err)
	}

	close(release)
	if v := <-waiterDone; v != "box" && v != "second" {
		t.Fatalf("waiter should get a result, got %q", v)
	}
}
