// BotLink Core - dual-transport device sync engine.
//
// BotLink bridges battery-powered smart devices (leak sensors, colour
// lights) to local consumers. Each configured device gets an accessory
// that keeps a state snapshot in sync over the local radio, the vendor
// cloud API, or both, and publishes changes to MQTT and InfluxDB.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/botlink-core/migrations"

	"github.com/nerrad567/botlink-core/internal/accessory"
	"github.com/nerrad567/botlink-core/internal/device"
	"github.com/nerrad567/botlink-core/internal/infrastructure/config"
	"github.com/nerrad567/botlink-core/internal/infrastructure/database"
	"github.com/nerrad567/botlink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/botlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/botlink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/botlink-core/internal/transport"
	"github.com/nerrad567/botlink-core/internal/webhook"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting BotLink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Database and snapshot store
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	store := device.NewSQLiteSnapshotStore(db.DB)

	// MQTT telemetry (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB history sink (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Transports
	var local transport.Channel
	if cfg.Radio.Enabled {
		local = transport.NewLocalRadioChannel(transport.NewBLEScanner())
		log.Info("local radio enabled", "adapter", cfg.Radio.Adapter)
	} else {
		log.Info("local radio disabled")
	}

	var remote transport.Channel
	if cfg.Cloud.Enabled && cfg.Cloud.HasCredentials() {
		remoteChannel, remoteErr := transport.NewRemoteAPIChannel(transport.RemoteOptions{
			BaseURL: cfg.Cloud.BaseURL,
			Token:   cfg.Cloud.Token,
			Secret:  cfg.Cloud.Secret,
			Timeout: cfg.Cloud.GetRequestTimeout(),
		})
		if remoteErr != nil {
			return fmt.Errorf("creating cloud channel: %w", remoteErr)
		}
		remote = remoteChannel
		log.Info("cloud API enabled", "base_url", cfg.Cloud.BaseURL)
	} else {
		log.Info("cloud API disabled")
	}

	// Accessories, one coordinator per configured device
	registry := webhook.NewRegistry()
	var coordinators []*accessory.Coordinator
	for _, dc := range cfg.Devices {
		dev, devErr := device.FromConfig(dc, cfg.Radio.GetScanDuration())
		if devErr != nil {
			return fmt.Errorf("device %s: %w", dc.ID, devErr)
		}

		coord, coordErr := accessory.New(accessory.Options{
			Device:    dev,
			Local:     local,
			Remote:    remote,
			Store:     store,
			Notifier:  &logNotifier{log: log},
			Telemetry: newTelemetrySink(mqttClient, log),
			History:   historySink(influxClient),
			Logger:    log.With("component", "accessory"),
		})
		if coordErr != nil {
			return fmt.Errorf("device %s: %w", dc.ID, coordErr)
		}

		if dev.WebhookEnabled {
			if regErr := registry.Register(dev.ID, coord); regErr != nil {
				return regErr
			}
		}

		coord.Start(ctx)
		defer coord.Stop()
		coordinators = append(coordinators, coord)
	}
	log.Info("accessories started", "devices", len(coordinators))

	// Webhook ingress (optional)
	if cfg.Webhook.Enabled {
		srv, srvErr := webhook.New(cfg.Webhook, registry, log)
		if srvErr != nil {
			return srvErr
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting webhook ingress: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing webhook ingress", "error", closeErr)
			}
		}()
	}

	// Health reporting over MQTT
	if mqttClient != nil {
		checks := map[string]accessory.HealthCheck{
			"database": db.HealthCheck,
			"mqtt":     mqttClient.HealthCheck,
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient.HealthCheck
		}

		reporter := accessory.NewHealthReporter(accessory.HealthReporterConfig{
			ServiceID: cfg.Site.ID,
			Version:   version,
			Topic:     mqtt.Topics{}.Health(),
			Publisher: mqttClient,
			Checks:    checks,
			Logger:    log.With("component", "health"),
		})
		for _, coord := range coordinators {
			reporter.Register(coord)
		}
		reporter.Start(ctx)
		defer reporter.Stop()
	}

	log.Info("BotLink Core running")
	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the config file path from args or the default.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if env := os.Getenv("BOTLINK_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath
}

// logNotifier surfaces confirmed state changes in the log. The standalone
// binary has no host framework attached; embedders supply their own
// Notifier.
type logNotifier struct {
	log *logging.Logger
}

func (n *logNotifier) UpdateField(deviceID, field string, value any) {
	n.log.Info("state change", "device_id", deviceID, "field", field, "value", value)
}

func (n *logNotifier) UpdateFault(deviceID, field string, fault bool) {
	if fault {
		n.log.Warn("field fault raised", "device_id", deviceID, "field", field)
		return
	}
	n.log.Debug("field fault cleared", "device_id", deviceID, "field", field)
}

func (n *logNotifier) UpdateLowBattery(deviceID string, low bool) {
	if low {
		n.log.Warn("battery low", "device_id", deviceID)
	}
}

// telemetrySink publishes per-cycle state changes to MQTT.
type telemetrySink struct {
	client *mqtt.Client
	log    *logging.Logger
}

func newTelemetrySink(client *mqtt.Client, log *logging.Logger) accessory.TelemetrySink {
	if client == nil {
		return nil
	}
	return &telemetrySink{client: client, log: log}
}

func (t *telemetrySink) PublishState(deviceID string, changed map[string]any) {
	payload, err := json.Marshal(changed)
	if err != nil {
		return
	}
	topic := mqtt.Topics{}.DeviceState(deviceID)
	if err := t.client.PublishRetained(topic, payload); err != nil {
		t.log.Debug("state publish failed", "device_id", deviceID, "error", err)
	}
}

func (t *telemetrySink) PublishEvent(deviceID string, fields map[string]any) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return
	}
	topic := mqtt.Topics{}.DeviceEvent(deviceID)
	if err := t.client.Publish(topic, payload, 1, false); err != nil {
		t.log.Debug("event publish failed", "device_id", deviceID, "error", err)
	}
}

// historySink adapts the optional InfluxDB client. A typed nil inside a
// non-nil interface would defeat the coordinator's nil checks, hence the
// explicit conversion.
func historySink(client *influxdb.Client) accessory.HistoryWriter {
	if client == nil {
		return nil
	}
	return client
}
