package device

import (
	"fmt"
	"strings"
)

// NormalizeStatus translates a raw status map — a remote API body, a webhook
// payload, or an already-canonical local decode — into canonical field
// values for the device type.
//
// The translation is all-or-nothing: a recognised key carrying an
// untranslatable value fails the whole map, so a malformed payload can
// never half-apply. Unrecognised keys are ignored (payloads carry
// metadata the accessory does not model).
func NormalizeStatus(t DeviceType, raw map[string]any) (map[string]any, error) {
	declared := make(map[string]bool)
	for _, f := range FieldsFor(t) {
		declared[f] = true
	}

	out := make(map[string]any, len(raw))
	for key, value := range raw {
		field, ok := canonicalField(t, key)
		if !ok || !declared[field] {
			continue
		}

		normalized, err := normalizeField(field, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[field] = normalized
	}

	return out, nil
}

// canonicalField maps incoming key spellings to field names.
func canonicalField(t DeviceType, key string) (string, bool) {
	switch key {
	case FieldPower, "powerState":
		return FieldPower, true
	case FieldBrightness:
		return FieldBrightness, true
	case FieldColor:
		return FieldColor, true
	case FieldColorTemperature, "colorTemperature":
		return FieldColorTemperature, true
	case FieldBattery:
		return FieldBattery, true
	case FieldVersion, "firmwareVersion":
		return FieldVersion, true
	case FieldLeak, "detectionState":
		return FieldLeak, true
	case "status":
		// Leak sensors report their detection state under a bare "status"
		// key on some firmware; for lights "status" is unrelated metadata.
		if t == DeviceTypeLeakSensor {
			return FieldLeak, true
		}
		return "", false
	default:
		return "", false
	}
}

// normalizeField converts one raw value into its canonical form.
func normalizeField(field string, value any) (any, error) {
	switch field {
	case FieldPower, FieldLeak:
		return toBool(value)

	case FieldBrightness, FieldBattery:
		f, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		return ClampPercent(int(f)), nil

	case FieldColorTemperature:
		f, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		return int(f), nil

	case FieldColor:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil

	case FieldVersion:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return NormalizeFirmwareVersion(s), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// toBool accepts the boolean spellings seen across transports: native
// bools, on/off strings, and 0/1 numbers.
func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "true", "1", "detected":
			return true, nil
		case "off", "false", "0", "clear":
			return false, nil
		}
		return false, fmt.Errorf("unrecognised boolean %q", v)
	default:
		if f, ok := asFloat(value); ok {
			return f != 0, nil
		}
		return false, fmt.Errorf("expected boolean, got %T", value)
	}
}
