package mqtt

import "fmt"

// Topic prefixes for the BotLink MQTT surface.
//
// Flat scheme: botlink/{category}/{device_id}
const (
	// TopicPrefix is the base for all BotLink topics.
	TopicPrefix = "botlink"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "botlink/system"
)

// Topics provides builders for BotLink MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("leak-cellar")
//	// Returns: "botlink/state/leak-cellar"
type Topics struct{}

// DeviceState returns the topic for per-device state change telemetry.
// Payloads carry only the fields that changed in one cycle.
//
// Example: botlink/state/leak-cellar
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceEvent returns the topic for applied webhook push events.
//
// Example: botlink/event/leak-cellar
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, deviceID)
}

// Health returns the topic for service health reports.
func (Topics) Health() string {
	return fmt.Sprintf("%s/health", TopicPrefix)
}

// SystemStatus returns the topic for online/offline status, including the
// Last Will message.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
