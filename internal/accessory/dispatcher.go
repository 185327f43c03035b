package accessory

import (
	"context"
	"sync"
	"time"
)

// CommandDispatcher coalesces bursts of setter calls into one dispatch
// cycle per debounce window.
//
// Setters signal the dispatcher and return immediately; they never block
// on the network. N signals inside one window produce exactly one cycle,
// which reads the last desired values at the moment it runs — stale
// intermediate values are never sent. While a cycle is running a second
// one cannot start; a signal arriving mid-cycle opens a fresh window only
// after the cycle settles.
type CommandDispatcher struct {
	window time.Duration
	cycle  func(ctx context.Context)

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool

	ctx      context.Context
	started  bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewCommandDispatcher creates a dispatcher. cycle runs one dispatch pass
// over the accessory's dirty fields. Call Start before signalling.
func NewCommandDispatcher(window time.Duration, cycle func(ctx context.Context)) *CommandDispatcher {
	return &CommandDispatcher{
		window: window,
		cycle:  cycle,
		done:   make(chan struct{}),
	}
}

// Start binds the dispatcher to its lifecycle context.
func (d *CommandDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.started = true
	d.mu.Unlock()
}

// Stop cancels any armed debounce window and waits for a running cycle.
// Safe to call multiple times.
func (d *CommandDispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)

		d.mu.Lock()
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		d.started = false
		d.mu.Unlock()

		d.wg.Wait()
	})
}

// Signal notes that a desired value changed and arms the debounce window.
// Returns immediately. Repeated signals within an open window are
// absorbed; a signal during a running cycle schedules one follow-up
// window after the cycle completes.
func (d *CommandDispatcher) Signal() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return
	}

	if d.running {
		d.pending = true
		return
	}

	if d.timer != nil {
		// Window already open; this signal coalesces into it.
		return
	}

	d.timer = time.AfterFunc(d.window, d.windowClosed)
}

// windowClosed fires when the debounce window elapses.
func (d *CommandDispatcher) windowClosed() {
	d.mu.Lock()
	if !d.started || d.running {
		// Stopped, or a cycle is somehow still running; the pending flag
		// path owns rescheduling in the latter case.
		d.timer = nil
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.running = true
	ctx := d.ctx
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.settle()

		select {
		case <-d.done:
			return
		default:
		}

		d.cycle(ctx)
	}()
}

// settle clears the busy flag and opens a follow-up window if signals
// arrived while the cycle was running.
func (d *CommandDispatcher) settle() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.running = false
	if d.pending && d.started {
		d.pending = false
		d.timer = time.AfterFunc(d.window, d.windowClosed)
	}
}
