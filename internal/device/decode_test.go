package device

import (
	"errors"
	"testing"
)

func TestDecodeAdvertisement_LeakSensor(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		wantLeak    bool
		wantBattery int
	}{
		{"dry full battery", []byte{0x26, 0x00, 100}, false, 100},
		{"leak detected", []byte{0x26, 0x01, 42}, true, 42},
		{"battery high bit masked", []byte{0x26, 0x00, 0x80 | 50}, false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAdvertisement(DeviceTypeLeakSensor, tt.data)
			if err != nil {
				t.Fatalf("DecodeAdvertisement() error = %v", err)
			}
			if got[FieldLeak] != tt.wantLeak {
				t.Errorf("leak = %v, want %v", got[FieldLeak], tt.wantLeak)
			}
			if got[FieldBattery] != tt.wantBattery {
				t.Errorf("battery = %v, want %v", got[FieldBattery], tt.wantBattery)
			}
		})
	}
}

func TestDecodeAdvertisement_Light(t *testing.T) {
	got, err := DecodeAdvertisement(DeviceTypeLightBulb, []byte{0x75, 0x80, 90, 60})
	if err != nil {
		t.Fatalf("DecodeAdvertisement() error = %v", err)
	}
	if got[FieldPower] != true {
		t.Errorf("power = %v, want true", got[FieldPower])
	}
	if got[FieldBrightness] != 60 {
		t.Errorf("brightness = %v, want 60", got[FieldBrightness])
	}
}

func TestDecodeAdvertisement_LightWithoutBrightness(t *testing.T) {
	got, err := DecodeAdvertisement(DeviceTypeLightStrip, []byte{0x72, 0x00, 80})
	if err != nil {
		t.Fatalf("DecodeAdvertisement() error = %v", err)
	}
	if got[FieldPower] != false {
		t.Errorf("power = %v, want false", got[FieldPower])
	}
	if _, ok := got[FieldBrightness]; ok {
		t.Error("brightness should be absent for a three-byte frame")
	}
}

func TestDecodeAdvertisement_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", []byte{0x26, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAdvertisement(DeviceTypeLeakSensor, tt.data)
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("error = %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestDecodeAdvertisement_UnknownType(t *testing.T) {
	_, err := DecodeAdvertisement(DeviceType("toaster"), []byte{0x00, 0x00, 50})
	if !errors.Is(err, ErrUnknownDeviceType) {
		t.Errorf("error = %v, want ErrUnknownDeviceType", err)
	}
}
