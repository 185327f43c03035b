package accessory

import (
	"errors"
	"testing"

	"github.com/nerrad567/botlink-core/internal/device"
)

func TestCommandFor(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		value     any
		wantCmd   string
		wantParam string
		wantErr   bool
	}{
		{name: "power on", field: device.FieldPower, value: true, wantCmd: "turnOn", wantParam: "default"},
		{name: "power off", field: device.FieldPower, value: false, wantCmd: "turnOff", wantParam: "default"},
		{name: "power wrong type", field: device.FieldPower, value: "on", wantErr: true},
		{name: "brightness int", field: device.FieldBrightness, value: 45, wantCmd: "setBrightness", wantParam: "45"},
		{name: "brightness float from json", field: device.FieldBrightness, value: 45.0, wantCmd: "setBrightness", wantParam: "45"},
		{name: "color", field: device.FieldColor, value: "255:128:0", wantCmd: "setColor", wantParam: "255:128:0"},
		{name: "color wrong type", field: device.FieldColor, value: 7, wantErr: true},
		{name: "color temperature", field: device.FieldColorTemperature, value: 2700.0, wantCmd: "setColorTemperature", wantParam: "2700"},
		{name: "unknown field", field: "humidity", value: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := commandFor(tt.field, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrUnknownSetter) {
					t.Errorf("error = %v, want ErrUnknownSetter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("commandFor() error = %v", err)
			}
			if cmd.Command != tt.wantCmd {
				t.Errorf("Command = %q, want %q", cmd.Command, tt.wantCmd)
			}
			if cmd.Parameter != tt.wantParam {
				t.Errorf("Parameter = %q, want %q", cmd.Parameter, tt.wantParam)
			}
			if cmd.Type != "command" {
				t.Errorf("Type = %q, want %q", cmd.Type, "command")
			}
		})
	}
}
