package device

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is the ordered field-state map for one accessory.
//
// It is owned by that accessory's coordinator; all other components receive
// values by copy, never a live reference. Refresh, dispatch, and webhook
// goroutines touch it concurrently, so the per-field mutation helpers are
// guarded internally. Field entries are created once and never deleted,
// only overwritten.
type Snapshot struct {
	deviceType DeviceType
	order      []string
	fields     map[string]*FieldState
	mu         sync.RWMutex
}

// NewSnapshot creates an empty snapshot for a device type.
// Every declared field starts Unknown.
func NewSnapshot(t DeviceType) *Snapshot {
	order := FieldsFor(t)
	fields := make(map[string]*FieldState, len(order))
	for _, name := range order {
		fields[name] = &FieldState{
			Observed: Unknown(),
			Desired:  Unknown(),
		}
	}
	return &Snapshot{
		deviceType: t,
		order:      order,
		fields:     fields,
	}
}

// Fields returns the declared field names in push-priority order.
func (s *Snapshot) Fields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a copy of one field's state.
func (s *Snapshot) Get(field string) (FieldState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs, ok := s.fields[field]
	if !ok {
		return FieldState{}, false
	}
	return *fs, true
}

// Observed returns a field's observed value, Unknown for undeclared fields.
func (s *Snapshot) Observed(field string) Value {
	fs, ok := s.Get(field)
	if !ok {
		return Unknown()
	}
	return fs.Observed
}

// SetDesired records a host-requested value for a field.
// It never blocks on the network; the dispatcher picks the value up later.
func (s *Snapshot) SetDesired(field string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.fields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	fs.Desired = Known(data)
	return nil
}

// Observe records a transport- or webhook-confirmed value for a field.
// Returns true if the observed value changed. Undeclared fields are ignored
// (a fetched status may carry more than the accessory models).
func (s *Snapshot) Observe(field string, data any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.fields[field]
	if !ok {
		return false
	}

	next := Known(data)
	changed := !next.Equal(fs.Observed)
	fs.Observed = next
	fs.LastError = nil
	return changed
}

// ApplyStatus applies a full or partial status map atomically and returns
// the names of fields whose observed value changed, in declared order.
// Keys not declared for the device type are ignored; one undeclared key
// never prevents the others from applying.
func (s *Snapshot) ApplyStatus(status map[string]any) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for _, name := range s.order {
		data, ok := status[name]
		if !ok {
			continue
		}
		fs := s.fields[name]
		next := Known(data)
		if !next.Equal(fs.Observed) {
			changed = append(changed, name)
		}
		fs.Observed = next
		fs.LastError = nil
	}
	return changed
}

// DirtyFields returns the writable fields with a pending push, in
// push-priority order.
func (s *Snapshot) DirtyFields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dirty []string
	for _, name := range WritableFieldsFor(s.deviceType) {
		if fs, ok := s.fields[name]; ok && fs.Dirty() {
			dirty = append(dirty, name)
		}
	}
	return dirty
}

// ConfirmPush records that the device applied pushed: observed becomes
// the value that actually went over the wire, never the live desired
// value. If a setter raced the push and Desired has since moved on, the
// field stays dirty and the newer value gets its own dispatch.
func (s *Snapshot) ConfirmPush(field string, pushed any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.fields[field]
	if !ok {
		return
	}
	fs.Observed = Known(pushed)
	fs.PushedAt = now
	fs.LastError = nil
	fs.Fault = false
}

// MarkPushFailed records a push failure: the field stays dirty, the fault
// marker is raised for the host framework, and observed data is untouched.
func (s *Snapshot) MarkPushFailed(field string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.fields[field]
	if !ok {
		return
	}
	fs.LastError = cause
	fs.Fault = true
}

// ClearFaults lowers every field's fault marker. Called after a fully
// successful cycle.
func (s *Snapshot) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fs := range s.fields {
		fs.Fault = false
	}
}

// ExportObserved returns the confirmed observed values as a plain map,
// suitable for persistence and telemetry. Unknown and error-state fields
// are omitted.
func (s *Snapshot) ExportObserved() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		fs := s.fields[name]
		if fs.Observed.IsKnown() {
			out[name] = fs.Observed.Data
		}
	}
	return out
}

// SeedObserved seeds observed values from a persisted snapshot.
// The seed is best-effort and not authoritative: the first refresh
// re-verifies every field against a transport. Undeclared keys are ignored.
func (s *Snapshot) SeedObserved(state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		if data, ok := state[name]; ok {
			s.fields[name].Observed = Known(data)
		}
	}
}
