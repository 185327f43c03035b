package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/botlink-test.db"
radio:
  enabled: true
  scan_duration: 3
devices:
  - id: "aa:bb:cc:dd:ee:ff"
    name: "Cellar Leak Sensor"
    type: "leak_sensor"
    connection: "local"
    history: ["battery", "leak"]
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Database.Path != "/tmp/botlink-test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/botlink-test.db")
	}
	if len(cfg.Devices) != 1 {
		t.Fatalf("Devices count = %d, want 1", len(cfg.Devices))
	}
	if cfg.Devices[0].Connection != "local" {
		t.Errorf("Connection = %q, want %q", cfg.Devices[0].Connection, "local")
	}
}

func TestLoad_DeviceDefaults(t *testing.T) {
	content := `
devices:
  - id: "aa:bb:cc:dd:ee:01"
    type: "light_bulb"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	d := cfg.Devices[0]
	if d.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %d, want %d", d.RefreshInterval, defaultRefreshInterval)
	}
	if d.PushInterval != defaultPushInterval {
		t.Errorf("PushInterval = %d, want %d", d.PushInterval, defaultPushInterval)
	}
	if d.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", d.MaxRetries, defaultMaxRetries)
	}
	if d.Connection != "local_with_remote_fallback" {
		t.Errorf("Connection = %q, want fallback default", d.Connection)
	}
	if got := d.GetPushInterval(); got != time.Duration(defaultPushInterval)*time.Millisecond {
		t.Errorf("GetPushInterval() = %v", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOTLINK_CLOUD_TOKEN", "env-token")
	t.Setenv("BOTLINK_CLOUD_SECRET", "env-secret")

	content := `
cloud:
  enabled: true
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cloud.Token != "env-token" {
		t.Errorf("Cloud.Token = %q, want %q", cfg.Cloud.Token, "env-token")
	}
	if !cfg.Cloud.HasCredentials() {
		t.Error("HasCredentials() = false, want true")
	}
	if cfg.Cloud.BaseURL != "https://api.switch-bot.com" {
		t.Errorf("Cloud.BaseURL = %q, want default", cfg.Cloud.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidConnection(t *testing.T) {
	content := `
devices:
  - id: "aa:bb:cc:dd:ee:02"
    type: "leak_sensor"
    connection: "bluetooth"
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Error("Load() expected error for invalid connection mode, got nil")
	}
}

func TestLoad_LocalOnlyRequiresRadio(t *testing.T) {
	content := `
radio:
  enabled: false
devices:
  - id: "aa:bb:cc:dd:ee:03"
    type: "leak_sensor"
    connection: "local"
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Error("Load() expected error for local-only device with radio disabled, got nil")
	}
}

func TestLoad_RemoteOnlyWithCloudDisabledAllowed(t *testing.T) {
	// Remote-only with cloud disabled is a valid configuration; the
	// device is just stale until cloud access is enabled.
	content := `
cloud:
  enabled: false
devices:
  - id: "aa:bb:cc:dd:ee:04"
    type: "light_strip"
    connection: "remote"
`
	if _, err := Load(writeConfig(t, content)); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
}

func TestLoad_DuplicateDeviceID(t *testing.T) {
	content := `
devices:
  - id: "aa:bb:cc:dd:ee:05"
    type: "leak_sensor"
  - id: "aa:bb:cc:dd:ee:05"
    type: "light_bulb"
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Error("Load() expected error for duplicate device IDs, got nil")
	}
}

func TestValidate_CloudEnabledWithoutCredentials(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cloud.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for cloud without credentials, got nil")
	}
}
