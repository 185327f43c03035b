package accessory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefreshScheduler_FirstTickImmediate(t *testing.T) {
	var runs atomic.Int64
	s := NewRefreshScheduler(time.Hour, func(context.Context) {
		runs.Add(1)
	})

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 immediate refresh", runs.Load())
	}
}

func TestRefreshScheduler_PeriodicTicks(t *testing.T) {
	var runs atomic.Int64
	s := NewRefreshScheduler(20*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})

	s.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	s.Stop()

	if got := runs.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3 in ~100ms at 20ms interval", got)
	}
}

func TestRefreshScheduler_OverlappingTicksDropped(t *testing.T) {
	var dropped atomic.Int64
	var concurrent atomic.Int64
	var peak atomic.Int64

	block := make(chan struct{})
	var once sync.Once

	s := NewRefreshScheduler(10*time.Millisecond, func(context.Context) {
		n := concurrent.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		// First refresh stalls well past several tick intervals.
		once.Do(func() { <-block })
		concurrent.Add(-1)
	})
	s.SetOnDropped(func() { dropped.Add(1) })

	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	close(block)
	s.Stop()

	if peak.Load() > 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
	if dropped.Load() == 0 {
		t.Error("dropped = 0, want overlapped ticks to be dropped")
	}
}

func TestRefreshScheduler_TriggerOnceSharesGuard(t *testing.T) {
	var runs atomic.Int64
	block := make(chan struct{})

	s := NewRefreshScheduler(time.Hour, func(context.Context) {
		runs.Add(1)
		<-block
	})

	go s.TriggerOnce(context.Background())

	deadline := time.Now().Add(time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// A second trigger while the first is in flight must be dropped.
	s.TriggerOnce(context.Background())
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}

	close(block)
}

func TestRefreshScheduler_StopWaitsForInFlight(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})

	s := NewRefreshScheduler(time.Hour, func(context.Context) {
		close(started)
		time.Sleep(30 * time.Millisecond)
		close(finished)
	})

	s.Start(context.Background())
	<-started
	s.Stop()

	select {
	case <-finished:
	default:
		t.Error("Stop() returned while a refresh was still running")
	}
}
