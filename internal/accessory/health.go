package accessory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/botlink-core/internal/device"
)

// HealthStatus is the coarse service state carried in health messages.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStopping HealthStatus = "stopping"
)

// checkTimeout bounds one round of dependency probes.
const checkTimeout = 5 * time.Second

// HealthPublisher is the interface for publishing health messages.
// Typically implemented by an MQTT client.
type HealthPublisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// StatsSource exposes the cycle counters of one running accessory.
// Implemented by Coordinator.
type StatsSource interface {
	Device() device.Device
	Stats() Stats
}

// HealthCheck probes one infrastructure dependency. A non-nil error marks
// the service degraded with the probe's name and error as the reason.
type HealthCheck func(ctx context.Context) error

// HealthMessage is the JSON payload published to the health topic.
type HealthMessage struct {
	ServiceID     string                 `json:"service_id"`
	Version       string                 `json:"version"`
	Status        HealthStatus           `json:"status"`
	Reason        string                 `json:"reason,omitempty"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Devices       int                    `json:"devices"`
	PerDevice     map[string]DeviceStats `json:"per_device,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// DeviceStats is the per-device block inside a health message.
type DeviceStats struct {
	Name    string `json:"name,omitempty"`
	Offline bool   `json:"offline"`
	Stats   Stats  `json:"stats"`
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// ServiceID identifies this service instance in health messages.
	ServiceID string

	// Version is the service software version.
	Version string

	// Topic is the MQTT topic health messages are published to.
	Topic string

	// Interval is how often to publish. Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT client for publishing messages.
	Publisher HealthPublisher

	// Checks are named dependency probes (database, MQTT, InfluxDB) run
	// before each report to decide healthy versus degraded.
	Checks map[string]HealthCheck

	// Logger is optional.
	Logger Logger
}

// HealthReporter publishes periodic service health to MQTT, aggregating
// the cycle counters of every registered accessory.
type HealthReporter struct {
	serviceID string
	version   string
	topic     string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	checks    map[string]HealthCheck
	logger    Logger

	sourcesMu sync.RWMutex
	sources   []StatsSource

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHealthReporter creates a reporter ready to Start.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &HealthReporter{
		serviceID: cfg.ServiceID,
		version:   cfg.Version,
		topic:     cfg.Topic,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		checks:    cfg.Checks,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Register adds an accessory whose counters appear in health messages.
// Call before Start.
func (h *HealthReporter) Register(src StatsSource) {
	h.sourcesMu.Lock()
	h.sources = append(h.sources, src)
	h.sourcesMu.Unlock()
}

// Start begins periodic reporting. Call Stop to shut down.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop halts reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // best-effort during shutdown
		h.publishStatus(HealthStopping, "service stopping")
	})
}

// PublishNow publishes the current health status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logger.Warn("failed to publish initial health", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logger.Warn("failed to publish health", "error", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			return HealthDegraded, fmt.Sprintf("%s: %v", name, err)
		}
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	h.sourcesMu.RLock()
	perDevice := make(map[string]DeviceStats, len(h.sources))
	for _, src := range h.sources {
		id := src.Device()
		perDevice[id.ID] = DeviceStats{
			Name:    id.Name,
			Offline: id.Offline,
			Stats:   src.Stats(),
		}
	}
	h.sourcesMu.RUnlock()

	msg := HealthMessage{
		ServiceID:     h.serviceID,
		Version:       h.version,
		Status:        status,
		Reason:        reason,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Devices:       len(perDevice),
		PerDevice:     perDevice,
		Timestamp:     time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.publisher.Publish(h.topic, payload, 1, true)
}
