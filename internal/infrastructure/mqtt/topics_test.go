package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device state", topics.DeviceState("leak-cellar"), "botlink/state/leak-cellar"},
		{"device event", topics.DeviceEvent("bulb-hall"), "botlink/event/bulb-hall"},
		{"health", topics.Health(), "botlink/health"},
		{"system status", topics.SystemStatus(), "botlink/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
