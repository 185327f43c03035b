package device

import (
	"time"
)

// ValueKind discriminates the tri-state of a field value.
type ValueKind int

// ValueKind constants.
const (
	// KindUnknown means the value has never been confirmed from any
	// transport or webhook. Downstream consumers must treat it as
	// "do not report", not as a default.
	KindUnknown ValueKind = iota

	// KindKnown means the value was confirmed by a transport or webhook.
	KindKnown

	// KindError means the last attempt to determine the value failed.
	// The previous data, if any, is gone from this Value; callers that
	// want stale-but-available semantics keep the prior Known value
	// instead of storing an Error one.
	KindError
)

// Value is one tri-state field value: Unknown, Known(data), or Error(cause).
type Value struct {
	Kind  ValueKind
	Data  any
	Cause error
}

// Unknown returns the never-confirmed value.
func Unknown() Value {
	return Value{Kind: KindUnknown}
}

// Known returns a confirmed value.
func Known(data any) Value {
	return Value{Kind: KindKnown, Data: data}
}

// Errored returns an error-state value.
func Errored(cause error) Value {
	return Value{Kind: KindError, Cause: cause}
}

// IsKnown reports whether the value carries confirmed data.
func (v Value) IsKnown() bool {
	return v.Kind == KindKnown
}

// Equal compares two values. Unknown and Error values are never equal to
// anything, including each other; a pending desired value must always be
// pushed when the observed side is not a confirmed match.
func (v Value) Equal(o Value) bool {
	if v.Kind != KindKnown || o.Kind != KindKnown {
		return false
	}
	return dataEqual(v.Data, o.Data)
}

// dataEqual compares two field data values. Numeric values are normalised
// to float64 first because decoders produce ints while JSON produces
// float64 for the same field.
func dataEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}

	return a == b
}

// asFloat normalises any numeric type to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// FieldState is the synchronization bookkeeping for one field.
//
// Invariant: the field is dirty iff Desired is Known and differs from
// Observed. A confirmed push sets Observed to the value that was actually
// sent, so a setter racing an in-flight push leaves the field dirty.
type FieldState struct {
	// Observed is the last value confirmed from a transport or webhook.
	Observed Value

	// Desired is the last value requested by the host framework, pending
	// push. Unknown means nothing is pending.
	Desired Value

	// PushedAt is the timestamp of the last successful push.
	PushedAt time.Time

	// LastError is the most recent push or refresh failure affecting this
	// field, nil when the last operation succeeded.
	LastError error

	// Fault marks the field's health characteristic. Set on push failure
	// so the host framework surfaces device distress; Observed data is
	// left untouched.
	Fault bool
}

// Dirty reports whether a push is pending for the field.
func (f FieldState) Dirty() bool {
	if !f.Desired.IsKnown() {
		return false
	}
	return !f.Desired.Equal(f.Observed)
}
