package transport

import (
	"fmt"
	"strings"
)

// macLength is the number of hex digits in a radio address.
const macLength = 12

// ResolveAddress derives the colon-separated lowercase radio address from a
// device identifier. Identifiers may carry the address with or without
// separators ("AABBCCDDEEFF", "AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff").
func ResolveAddress(deviceID string) (string, error) {
	hex := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r >= 'a' && r <= 'f':
			return r
		case r >= 'A' && r <= 'F':
			return r + ('a' - 'A')
		case r == ':' || r == '-':
			return -1
		default:
			// Any other character makes the identifier non-addressable.
			return 'x'
		}
	}, deviceID)

	if len(hex) != macLength || strings.ContainsRune(hex, 'x') {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, deviceID)
	}

	var b strings.Builder
	b.Grow(macLength + macLength/2 - 1)
	for i := 0; i < macLength; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex[i : i+2])
	}
	return b.String(), nil
}
