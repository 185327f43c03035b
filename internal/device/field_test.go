package device

import (
	"errors"
	"testing"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"known equal bools", Known(true), Known(true), true},
		{"known differing bools", Known(true), Known(false), false},
		{"int vs float same number", Known(60), Known(60.0), true},
		{"int vs float different number", Known(60), Known(30.0), false},
		{"strings", Known("1.2"), Known("1.2"), true},
		{"unknown never equal", Unknown(), Unknown(), false},
		{"unknown vs known", Unknown(), Known(true), false},
		{"error never equal", Errored(errors.New("x")), Errored(errors.New("x")), false},
		{"error vs known", Errored(errors.New("x")), Known(true), false},
		{"nil data equal", Known(nil), Known(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldStateDirty(t *testing.T) {
	tests := []struct {
		name string
		fs   FieldState
		want bool
	}{
		{
			"nothing pending",
			FieldState{Observed: Known(true), Desired: Unknown()},
			false,
		},
		{
			"desired differs",
			FieldState{Observed: Known(30), Desired: Known(60)},
			true,
		},
		{
			"desired matches observed",
			FieldState{Observed: Known(60), Desired: Known(60)},
			false,
		},
		{
			"desired matches across numeric types",
			FieldState{Observed: Known(60.0), Desired: Known(60)},
			false,
		},
		{
			"desired set, observed unknown",
			FieldState{Observed: Unknown(), Desired: Known(true)},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fs.Dirty(); got != tt.want {
				t.Errorf("Dirty() = %v, want %v", got, tt.want)
			}
		})
	}
}
