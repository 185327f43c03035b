package device

import "fmt"

// Advertisement frame layout offsets. Frames arrive from the radio driver
// as raw service-data bytes; the first byte is the model tag, followed by
// model-specific status bytes.
const (
	frameModelOffset   = 0
	frameStatusOffset  = 1
	frameBatteryOffset = 2

	minFrameLen = 3

	batteryMask = 0x7F
	leakBit     = 0x01
	powerBit    = 0x80
)

// DecodeAdvertisement decodes the raw service-data bytes of one broadcast
// frame into field values for the given device type.
//
// The decode is all-or-nothing: a malformed frame yields ErrMalformedFrame
// and no partial field map.
func DecodeAdvertisement(t DeviceType, data []byte) (map[string]any, error) {
	if len(data) < minFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(data))
	}

	battery := int(data[frameBatteryOffset] & batteryMask)
	if battery > 100 {
		return nil, fmt.Errorf("%w: battery %d out of range", ErrMalformedFrame, battery)
	}

	switch t {
	case DeviceTypeLeakSensor:
		return map[string]any{
			FieldLeak:    data[frameStatusOffset]&leakBit != 0,
			FieldBattery: battery,
		}, nil

	case DeviceTypeLightBulb, DeviceTypeLightStrip, DeviceTypeCeilingLight:
		fields := map[string]any{
			FieldPower: data[frameStatusOffset]&powerBit != 0,
		}
		// Brightness byte is optional on some light models.
		if len(data) > minFrameLen {
			fields[FieldBrightness] = ClampPercent(int(data[minFrameLen]))
		}
		return fields, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeviceType, t)
	}
}
