package accessory

import "sync"

// Stats holds per-accessory cycle counters for monitoring.
type Stats struct {
	Refreshes        uint64
	RefreshFailures  uint64
	Fallbacks        uint64
	DispatchCycles   uint64
	CommandsSent     uint64
	CommandFailures  uint64
	WebhookApplied   uint64
	WebhookDropped   uint64
	TicksDropped     uint64
	SafeStateApplied uint64
}

// statsCounter is the mutable, guarded form of Stats.
type statsCounter struct {
	mu sync.Mutex
	s  Stats
}

func (c *statsCounter) add(f func(*Stats)) {
	c.mu.Lock()
	f(&c.s)
	c.mu.Unlock()
}

// snapshot returns a copy of the current counters.
func (c *statsCounter) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
