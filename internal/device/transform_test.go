package device

import "testing"

func TestNormalizeFirmwareVersion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"prefix and build suffix", "V1.2-3", "1.2"},
		{"lowercase prefix", "v2.0", "2.0"},
		{"plain version", "4.5", "4.5"},
		{"trailing text", "1.4beta", "1.4"},
		{"word prefix", "Ver3.1", "3.1"},
		{"trailing dot", "V1.", "1"},
		{"whitespace", "  V1.2-3 ", "1.2"},
		{"no digits", "unknown", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFirmwareVersion(tt.raw); got != tt.want {
				t.Errorf("NormalizeFirmwareVersion(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{130, 100},
	}

	for _, tt := range tests {
		if got := ClampPercent(tt.in); got != tt.want {
			t.Errorf("ClampPercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLowBattery(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"above threshold", 42, false},
		{"at threshold", LowBatteryThreshold, true},
		{"below threshold", 3, true},
		{"float from JSON", 10.0, true},
		{"non-numeric", "full", false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LowBattery(tt.value); got != tt.want {
				t.Errorf("LowBattery(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
