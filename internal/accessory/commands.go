package accessory

import (
	"fmt"

	"github.com/nerrad567/botlink-core/internal/device"
	"github.com/nerrad567/botlink-core/internal/transport"
)

// commandFor maps a desired field value onto the wire command that sets it.
func commandFor(field string, value any) (transport.Command, error) {
	switch field {
	case device.FieldPower:
		on, ok := value.(bool)
		if !ok {
			return transport.Command{}, fmt.Errorf("%w: power expects bool, got %T", ErrUnknownSetter, value)
		}
		if on {
			return transport.NewCommand("turnOn", "default"), nil
		}
		return transport.NewCommand("turnOff", "default"), nil

	case device.FieldBrightness:
		return transport.NewCommand("setBrightness", formatNumber(value)), nil

	case device.FieldColor:
		s, ok := value.(string)
		if !ok {
			return transport.Command{}, fmt.Errorf("%w: color expects string, got %T", ErrUnknownSetter, value)
		}
		return transport.NewCommand("setColor", s), nil

	case device.FieldColorTemperature:
		return transport.NewCommand("setColorTemperature", formatNumber(value)), nil

	default:
		return transport.Command{}, fmt.Errorf("%w: %q", ErrUnknownSetter, field)
	}
}

// formatNumber renders ints and floats without a trailing ".0" so the
// parameter matches what the device firmware expects.
func formatNumber(value any) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}
