package database

import "testing"

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{
			name:        "up migration",
			filename:    "20260815_100000_device_snapshots.up.sql",
			wantVersion: "20260815_100000",
			wantUp:      true,
			wantOK:      true,
		},
		{
			name:        "down migration",
			filename:    "20260815_100000_device_snapshots.down.sql",
			wantVersion: "20260815_100000",
			wantUp:      false,
			wantOK:      true,
		},
		{
			name:     "not sql",
			filename: "20260815_100000_device_snapshots.up.txt",
			wantOK:   false,
		},
		{
			name:     "no direction suffix",
			filename: "20260815_100000_device_snapshots.sql",
			wantOK:   false,
		},
		{
			name:     "missing timestamp parts",
			filename: "schema.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	if got := extractMigrationName("20260815_100000_device_snapshots.up.sql"); got != "device_snapshots" {
		t.Errorf("name = %q, want %q", got, "device_snapshots")
	}
}
