package webhook

import (
	"fmt"
	"sync"

	"github.com/nerrad567/botlink-core/internal/transport"
)

// EventHandler receives the context block of one push event. Implemented
// by the accessory coordinator; the handler validates and applies the
// event atomically.
type EventHandler interface {
	ApplyWebhookEvent(payload map[string]any) error
}

// Registry maps device addresses to the accessory that handles their push
// events. Accessories register themselves at startup; events for
// unregistered addresses are dropped.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]EventHandler)}
}

// Register claims a device address for a handler. The deviceID may be any
// accepted MAC spelling; it is normalised before storage so events match
// regardless of formatting.
func (r *Registry) Register(deviceID string, handler EventHandler) error {
	addr, err := transport.ResolveAddress(deviceID)
	if err != nil {
		return fmt.Errorf("webhook: register %q: %w", deviceID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[addr]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, addr)
	}
	r.handlers[addr] = handler
	return nil
}

// Unregister releases a device address. Unknown addresses are a no-op.
func (r *Registry) Unregister(deviceID string) {
	addr, err := transport.ResolveAddress(deviceID)
	if err != nil {
		return
	}

	r.mu.Lock()
	delete(r.handlers, addr)
	r.mu.Unlock()
}

// Lookup resolves the handler for a raw device address from an event.
func (r *Registry) Lookup(deviceMac string) (EventHandler, error) {
	addr, err := transport.ResolveAddress(deviceMac)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	r.mu.RLock()
	handler, ok := r.handlers[addr]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, addr)
	}
	return handler, nil
}

// Size returns the number of registered devices.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
