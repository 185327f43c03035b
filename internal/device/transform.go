package device

import (
	"strings"
	"unicode"
)

// Pure value transforms shared by the transport callers. None of these
// touch state or the network.

// Battery percentage at or below which the low-battery indicator is raised.
const LowBatteryThreshold = 15

// NormalizeFirmwareVersion reduces a raw firmware string to its
// "major.minor" form: a leading letter prefix is dropped and everything
// from the first non-version character onward is cut.
//
//	"V1.2-3"  -> "1.2"
//	"v2.0"    -> "2.0"
//	"1.4beta" -> "1.4"
func NormalizeFirmwareVersion(raw string) string {
	s := strings.TrimSpace(raw)

	// Drop a leading letter prefix ("V", "v", "Ver", ...).
	start := 0
	for start < len(s) && !unicode.IsDigit(rune(s[start])) {
		start++
	}
	s = s[start:]

	// Keep only digits and dots.
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || s[end] == '.') {
		end++
	}
	s = s[:end]

	return strings.TrimRight(s, ".")
}

// ClampPercent bounds a percentage value to [0, 100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// LowBattery reports whether a battery field value is at or below the
// low-battery threshold. Non-numeric values are never low.
func LowBattery(v any) bool {
	f, ok := asFloat(v)
	return ok && f <= LowBatteryThreshold
}
