package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for BotLink Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cloud    CloudConfig    `yaml:"cloud"`
	Radio    RadioConfig    `yaml:"radio"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
// The database holds the persisted accessory snapshots used to seed
// state caches across restarts.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the telemetry sink.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for the history-log sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CloudConfig contains remote API (cloud) settings.
// Token and Secret should normally be supplied via environment variables
// (BOTLINK_CLOUD_TOKEN, BOTLINK_CLOUD_SECRET) rather than the YAML file.
type CloudConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Secret  string `yaml:"secret"`

	// RequestTimeout is the per-request HTTP timeout in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// HasCredentials reports whether cloud credentials are present.
func (c CloudConfig) HasCredentials() bool {
	return c.Token != "" && c.Secret != ""
}

// GetRequestTimeout returns the HTTP request timeout as a Duration.
func (c CloudConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RadioConfig contains local radio (advertisement scan) settings.
type RadioConfig struct {
	Enabled bool   `yaml:"enabled"`
	Adapter string `yaml:"adapter"`

	// ScanDuration is the default wall-clock scan budget in seconds.
	// Individual devices may override it.
	ScanDuration int `yaml:"scan_duration"`
}

// GetScanDuration returns the default scan budget as a Duration.
func (r RadioConfig) GetScanDuration() time.Duration {
	return time.Duration(r.ScanDuration) * time.Second
}

// WebhookConfig contains webhook ingress server settings.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`

	// Timeouts for the ingress HTTP server, in seconds.
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// GetReadTimeout returns the ingress read timeout as a Duration.
func (w WebhookConfig) GetReadTimeout() time.Duration {
	return time.Duration(w.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the ingress write timeout as a Duration.
func (w WebhookConfig) GetWriteTimeout() time.Duration {
	return time.Duration(w.WriteTimeout) * time.Second
}

// DeviceConfig describes one bridged device.
type DeviceConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Model string `yaml:"model"`

	// Connection selects the transport policy: "local", "remote", or
	// "local_with_remote_fallback".
	Connection string `yaml:"connection"`

	// RefreshInterval is the poll cadence in seconds.
	RefreshInterval int `yaml:"refresh_interval"`

	// PushInterval is the command debounce window in milliseconds.
	PushInterval int `yaml:"push_interval"`

	// ScanDuration overrides the radio scan budget for this device (seconds).
	// Zero means use the radio default.
	ScanDuration int `yaml:"scan_duration"`

	// MaxRetries and RetryDelay bound remote API retry behaviour per device.
	// RetryDelay is in milliseconds.
	MaxRetries int `yaml:"max_retries"`
	RetryDelay int `yaml:"retry_delay"`

	// Offline marks the device operator-offline: no transport is attempted
	// and a deterministic fail-safe state is reported instead.
	Offline bool `yaml:"offline"`

	// Webhook enables inbound push events for this device.
	Webhook bool `yaml:"webhook"`

	// History lists field names recorded to the history-log sink.
	History []string `yaml:"history"`
}

// GetRefreshInterval returns the poll cadence as a Duration.
func (d DeviceConfig) GetRefreshInterval() time.Duration {
	return time.Duration(d.RefreshInterval) * time.Second
}

// GetPushInterval returns the debounce window as a Duration.
func (d DeviceConfig) GetPushInterval() time.Duration {
	return time.Duration(d.PushInterval) * time.Millisecond
}

// GetRetryDelay returns the inter-attempt delay as a Duration.
func (d DeviceConfig) GetRetryDelay() time.Duration {
	return time.Duration(d.RetryDelay) * time.Millisecond
}

// GetScanDuration returns the per-device scan budget as a Duration.
// Zero means the caller should fall back to the radio default.
func (d DeviceConfig) GetScanDuration() time.Duration {
	return time.Duration(d.ScanDuration) * time.Second
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BOTLINK_SECTION_KEY
// For example: BOTLINK_DATABASE_PATH, BOTLINK_CLOUD_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDeviceDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "BotLink",
		},
		Database: DatabaseConfig{
			Path:        "./data/botlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "botlink-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Cloud: CloudConfig{
			BaseURL:        "https://api.switch-bot.com",
			RequestTimeout: 10,
		},
		Radio: RadioConfig{
			Adapter:      "hci0",
			ScanDuration: 5,
		},
		Webhook: WebhookConfig{
			Host:         "0.0.0.0",
			Port:         8484,
			Path:         "/webhook",
			ReadTimeout:  10,
			WriteTimeout: 10,
		},
	}
}

// Per-device fallback values applied when a device block omits them.
const (
	defaultRefreshInterval = 120 // seconds
	defaultPushInterval    = 100 // milliseconds
	defaultMaxRetries      = 5
	defaultRetryDelay      = 2000 // milliseconds
)

// applyDeviceDefaults fills in per-device defaults for omitted fields.
func applyDeviceDefaults(cfg *Config) {
	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		if d.RefreshInterval <= 0 {
			d.RefreshInterval = defaultRefreshInterval
		}
		if d.PushInterval <= 0 {
			d.PushInterval = defaultPushInterval
		}
		if d.MaxRetries <= 0 {
			d.MaxRetries = defaultMaxRetries
		}
		if d.RetryDelay <= 0 {
			d.RetryDelay = defaultRetryDelay
		}
		if d.Connection == "" {
			d.Connection = "local_with_remote_fallback"
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BOTLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("BOTLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("BOTLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("BOTLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BOTLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("BOTLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Cloud credentials - always set via environment in production
	if v := os.Getenv("BOTLINK_CLOUD_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}
	if v := os.Getenv("BOTLINK_CLOUD_SECRET"); v != "" {
		cfg.Cloud.Secret = v
	}
}

// validConnections are the accepted device connection policies.
var validConnections = map[string]bool{
	"local":                      true,
	"remote":                     true,
	"local_with_remote_fallback": true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Cloud.Enabled && c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required when cloud is enabled")
	}
	if c.Cloud.Enabled && !c.Cloud.HasCredentials() {
		errs = append(errs, "cloud credentials are required when cloud is enabled "+
			"(set BOTLINK_CLOUD_TOKEN and BOTLINK_CLOUD_SECRET)")
	}

	if c.Radio.Enabled && c.Radio.ScanDuration <= 0 {
		errs = append(errs, "radio.scan_duration must be positive")
	}

	if c.Webhook.Enabled && (c.Webhook.Port < 1 || c.Webhook.Port > 65535) {
		errs = append(errs, "webhook.port must be between 1 and 65535")
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.ID == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].id is required", i))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Sprintf("devices[%d].id %q is duplicated", i, d.ID))
		}
		seen[d.ID] = true

		if !validConnections[d.Connection] {
			errs = append(errs, fmt.Sprintf(
				"devices[%d].connection must be local, remote, or local_with_remote_fallback", i))
		}
		// A local-only device with the radio disabled has no transport at all.
		// Remote-only with cloud disabled is allowed; the device is reported
		// stale at runtime so the operator can toggle cloud without editing
		// every device block.
		if d.Connection == "local" && !c.Radio.Enabled {
			errs = append(errs, fmt.Sprintf(
				"devices[%d] is local-only but radio is disabled", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
