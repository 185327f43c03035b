package transport

import (
	"errors"
	"testing"
)

func TestResolveAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare uppercase", "AABBCCDDEEFF", "aa:bb:cc:dd:ee:ff", false},
		{"colon separated", "aa:bb:cc:dd:ee:ff", "aa:bb:cc:dd:ee:ff", false},
		{"dash separated", "AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff", false},
		{"mixed case", "Aa:Bb:Cc:Dd:Ee:Ff", "aa:bb:cc:dd:ee:ff", false},
		{"too short", "aabbccddee", "", true},
		{"too long", "aabbccddeeff00", "", true},
		{"non-hex", "zz:bb:cc:dd:ee:ff", "", true},
		{"friendly name", "cellar-sensor", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAddress(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("ResolveAddress(%q) error = %v, want ErrInvalidAddress", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAddress(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
