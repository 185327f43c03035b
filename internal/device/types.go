package device

import (
	"fmt"
	"time"

	"github.com/nerrad567/botlink-core/internal/infrastructure/config"
)

// ConnectionMode selects which transports a device may use.
// It is a closed set; SyncCoordinator switches exhaustively over it.
type ConnectionMode int

// ConnectionMode constants.
const (
	// ModeLocalOnly uses only the local radio channel.
	ModeLocalOnly ConnectionMode = iota

	// ModeRemoteOnly uses only the cloud API, wrapped in the retry policy.
	ModeRemoteOnly

	// ModeLocalWithRemoteFallback prefers the local radio and falls back to
	// the cloud API when a scan times out (refresh) or a push fails once.
	ModeLocalWithRemoteFallback
)

// String returns the configuration spelling of the mode.
func (m ConnectionMode) String() string {
	switch m {
	case ModeLocalOnly:
		return "local"
	case ModeRemoteOnly:
		return "remote"
	case ModeLocalWithRemoteFallback:
		return "local_with_remote_fallback"
	default:
		return fmt.Sprintf("connection_mode(%d)", int(m))
	}
}

// ParseConnectionMode converts a configuration string to a ConnectionMode.
func ParseConnectionMode(s string) (ConnectionMode, error) {
	switch s {
	case "local":
		return ModeLocalOnly, nil
	case "remote":
		return ModeRemoteOnly, nil
	case "local_with_remote_fallback":
		return ModeLocalWithRemoteFallback, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidConnectionMode, s)
	}
}

// UsesLocal reports whether the mode ever touches the local radio.
func (m ConnectionMode) UsesLocal() bool {
	return m == ModeLocalOnly || m == ModeLocalWithRemoteFallback
}

// UsesRemote reports whether the mode ever touches the cloud API.
func (m ConnectionMode) UsesRemote() bool {
	return m == ModeRemoteOnly || m == ModeLocalWithRemoteFallback
}

// DeviceType represents the specific kind of bridged device.
type DeviceType string //nolint:revive // device.DeviceType is clearer than device.Type in calling code

// Device type constants.
const (
	DeviceTypeLeakSensor   DeviceType = "leak_sensor"
	DeviceTypeLightBulb    DeviceType = "light_bulb"
	DeviceTypeLightStrip   DeviceType = "light_strip"
	DeviceTypeCeilingLight DeviceType = "ceiling_light"
)

// AllDeviceTypes returns all valid device type values.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		DeviceTypeLeakSensor, DeviceTypeLightBulb,
		DeviceTypeLightStrip, DeviceTypeCeilingLight,
	}
}

// IsLight reports whether the type is a light variant.
func (t DeviceType) IsLight() bool {
	switch t {
	case DeviceTypeLightBulb, DeviceTypeLightStrip, DeviceTypeCeilingLight:
		return true
	case DeviceTypeLeakSensor:
		return false
	default:
		return false
	}
}

// Synchronized field names. Field values live in the accessory snapshot;
// these constants are the keys.
const (
	FieldPower            = "power"
	FieldBrightness       = "brightness"
	FieldColor            = "color"
	FieldColorTemperature = "color_temperature"
	FieldBattery          = "battery"
	FieldLeak             = "leak"
	FieldVersion          = "version"
)

// FieldsFor returns the declared field set for a device type, in the fixed
// push-priority order used by the command dispatcher.
func FieldsFor(t DeviceType) []string {
	switch t {
	case DeviceTypeLeakSensor:
		return []string{FieldLeak, FieldBattery, FieldVersion}
	case DeviceTypeLightBulb, DeviceTypeLightStrip, DeviceTypeCeilingLight:
		// Power first so color changes land on a lit device, brightness last
		// so intermediate levels are not visible during the sequence.
		return []string{
			FieldPower, FieldColor, FieldColorTemperature,
			FieldBrightness, FieldVersion,
		}
	default:
		return nil
	}
}

// WritableFieldsFor returns the subset of fields the dispatcher may push,
// in push-priority order. Sensor fields are read-only.
func WritableFieldsFor(t DeviceType) []string {
	switch t {
	case DeviceTypeLightBulb, DeviceTypeLightStrip, DeviceTypeCeilingLight:
		return []string{FieldPower, FieldColor, FieldColorTemperature, FieldBrightness}
	case DeviceTypeLeakSensor:
		return nil
	default:
		return nil
	}
}

// SafeState returns the deterministic fail-safe observed state for a device
// with no usable transport. This is an explicit "known inactive" policy,
// distinct from Unknown ("never yet confirmed").
func SafeState(t DeviceType) map[string]any {
	switch t {
	case DeviceTypeLeakSensor:
		return map[string]any{FieldLeak: false}
	case DeviceTypeLightBulb, DeviceTypeLightStrip, DeviceTypeCeilingLight:
		return map[string]any{FieldPower: false}
	default:
		return map[string]any{}
	}
}

// Device is the identity and capability descriptor for one bridged device.
// Immutable after construction except for the operator-controlled offline
// flag, which is owned by the accessory coordinator.
type Device struct {
	ID    string
	Name  string
	Type  DeviceType
	Model string

	Mode ConnectionMode

	RefreshInterval time.Duration
	PushInterval    time.Duration
	ScanDuration    time.Duration
	MaxRetries      int
	RetryDelay      time.Duration

	Offline bool

	// WebhookEnabled registers the device with the webhook router.
	WebhookEnabled bool

	// HistoryFields lists field names recorded to the history-log sink.
	HistoryFields []string
}

// FromConfig builds a Device from its configuration block.
// radioScanDefault is used when the device block does not override the
// scan budget.
func FromConfig(dc config.DeviceConfig, radioScanDefault time.Duration) (Device, error) {
	mode, err := ParseConnectionMode(dc.Connection)
	if err != nil {
		return Device{}, fmt.Errorf("device %s: %w", dc.ID, err)
	}

	t := DeviceType(dc.Type)
	known := false
	for _, valid := range AllDeviceTypes() {
		if t == valid {
			known = true
			break
		}
	}
	if !known {
		return Device{}, fmt.Errorf("%w: %q", ErrUnknownDeviceType, dc.Type)
	}

	scan := dc.GetScanDuration()
	if scan <= 0 {
		scan = radioScanDefault
	}

	return Device{
		ID:              dc.ID,
		Name:            dc.Name,
		Type:            t,
		Model:           dc.Model,
		Mode:            mode,
		RefreshInterval: dc.GetRefreshInterval(),
		PushInterval:    dc.GetPushInterval(),
		ScanDuration:    scan,
		MaxRetries:      dc.MaxRetries,
		RetryDelay:      dc.GetRetryDelay(),
		Offline:         dc.Offline,
		WebhookEnabled:  dc.Webhook,
		HistoryFields:   append([]string(nil), dc.History...),
	}, nil
}

// TracksHistory reports whether a field is configured for historical tracking.
func (d Device) TracksHistory(field string) bool {
	for _, f := range d.HistoryFields {
		if f == field {
			return true
		}
	}
	return false
}
