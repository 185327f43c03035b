package accessory

import (
	"context"
	"sync"
	"time"
)

// RefreshScheduler drives the periodic refresh pipeline for one accessory.
//
// A recurring timer fires every interval. A tick that arrives while the
// previous refresh is still running is silently dropped, not queued, so at
// most one refresh is in flight per device at any time. The in-progress
// guard is reset on a deferred path so a panicking or failing refresh can
// never wedge the scheduler.
type RefreshScheduler struct {
	interval time.Duration
	run      func(ctx context.Context)

	// inProgress is the overlap guard.
	inProgress bool
	guardMu    sync.Mutex

	// onDropped observes dropped ticks (optional, used for stats).
	onDropped func()

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRefreshScheduler creates a scheduler. run is invoked on each
// non-overlapping tick. Call Start to begin.
func NewRefreshScheduler(interval time.Duration, run func(ctx context.Context)) *RefreshScheduler {
	return &RefreshScheduler{
		interval: interval,
		run:      run,
		done:     make(chan struct{}),
	}
}

// SetOnDropped registers an observer for overlapped, dropped ticks.
func (s *RefreshScheduler) SetOnDropped(fn func()) {
	s.onDropped = fn
}

// Start begins ticking. The first refresh runs immediately rather than
// waiting a full interval, so a freshly started accessory is populated
// without delay.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop halts the ticker and waits for an in-flight refresh to finish.
// Safe to call multiple times.
func (s *RefreshScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// TriggerOnce runs one out-of-band refresh (the post-dispatch verification
// tick) subject to the same overlap guard as timed ticks.
func (s *RefreshScheduler) TriggerOnce(ctx context.Context) {
	s.tick(ctx)
}

func (s *RefreshScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs the refresh unless one is already in flight.
func (s *RefreshScheduler) tick(ctx context.Context) {
	s.guardMu.Lock()
	if s.inProgress {
		s.guardMu.Unlock()
		if s.onDropped != nil {
			s.onDropped()
		}
		return
	}
	s.inProgress = true
	s.guardMu.Unlock()

	defer func() {
		s.guardMu.Lock()
		s.inProgress = false
		s.guardMu.Unlock()
	}()

	s.run(ctx)
}
