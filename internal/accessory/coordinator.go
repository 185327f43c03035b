package accessory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/botlink-core/internal/device"
	"github.com/nerrad567/botlink-core/internal/transport"
)

const (
	// verifyDelayDefault is how long after a dispatch cycle the
	// verification refresh fires. Long enough for slow firmware to settle,
	// short enough that the host sees confirmation promptly.
	verifyDelayDefault = 2 * time.Second

	// persistTimeout bounds best-effort snapshot writes so a slow disk
	// cannot stall a refresh or dispatch cycle.
	persistTimeout = 3 * time.Second
)

// Coordinator owns the full synchronisation lifecycle of one device: the
// periodic refresh pipeline, the debounced command dispatcher, webhook
// event application, and the host-facing read/write boundary.
//
// One Coordinator per device. All transports, sinks, and the snapshot are
// private to it; hosts interact only through Set, Get, SetOffline, and
// ApplyWebhookEvent.
type Coordinator struct {
	dev   device.Device
	devMu sync.RWMutex // guards dev.Offline

	snap *device.Snapshot

	local  transport.Channel
	remote transport.Channel
	retry  transport.RetryPolicy

	store     device.SnapshotStore
	notifier  Notifier
	telemetry TelemetrySink
	history   HistoryWriter
	logger    Logger

	scheduler  *RefreshScheduler
	dispatcher *CommandDispatcher

	verifyDelay time.Duration

	// lastNotice deduplicates repeated degraded-state log lines. A notice
	// is logged when the condition first appears and cleared on the next
	// healthy cycle, so a flapping transport does not storm the log.
	noticeMu   sync.Mutex
	lastNotice string

	runCtx    context.Context
	runCancel context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once

	stats statsCounter
}

// Options configures a Coordinator. Device is required; Local and Remote
// may each be nil when the corresponding transport is unavailable, and the
// coordinator degrades per the device's connection mode. All sinks are
// optional.
type Options struct {
	Device device.Device

	Local  transport.Channel
	Remote transport.Channel

	Store     device.SnapshotStore
	Notifier  Notifier
	Telemetry TelemetrySink
	History   HistoryWriter
	Logger    Logger

	// VerifyDelay overrides the gap between a dispatch cycle and its
	// verification refresh. Zero means the default.
	VerifyDelay time.Duration
}

// New builds a Coordinator for one device. It validates that the device's
// connection mode has at least a chance of being served: a local-only
// device with no local transport has no path to the hardware at all.
func New(opts Options) (*Coordinator, error) {
	if opts.Device.Mode == device.ModeLocalOnly && opts.Local == nil {
		return nil, ErrNoTransport
	}

	c := &Coordinator{
		dev:    opts.Device,
		snap:   device.NewSnapshot(opts.Device.Type),
		local:  opts.Local,
		remote: opts.Remote,
		retry: transport.RetryPolicy{
			MaxAttempts: opts.Device.MaxRetries,
			Delay:       opts.Device.RetryDelay,
		},
		store:       opts.Store,
		notifier:    opts.Notifier,
		telemetry:   opts.Telemetry,
		history:     opts.History,
		logger:      opts.Logger,
		verifyDelay: opts.VerifyDelay,
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.verifyDelay <= 0 {
		c.verifyDelay = verifyDelayDefault
	}

	c.scheduler = NewRefreshScheduler(opts.Device.RefreshInterval, c.refresh)
	c.scheduler.SetOnDropped(func() {
		c.stats.add(func(s *Stats) { s.TicksDropped++ })
	})
	c.dispatcher = NewCommandDispatcher(opts.Device.PushInterval, c.dispatchCycle)

	return c, nil
}

// Start seeds the snapshot from the persisted store, then starts the
// refresh scheduler and command dispatcher. The first refresh runs
// immediately so the host is not left staring at unknowns for a full
// interval.
func (c *Coordinator) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.runCtx, c.runCancel = context.WithCancel(ctx)

		c.seedFromStore(c.runCtx)

		c.scheduler.Start(c.runCtx)
		c.dispatcher.Start(c.runCtx)

		c.logger.Info("accessory started",
			"device_id", c.dev.ID,
			"type", string(c.dev.Type),
			"mode", c.dev.Mode.String(),
		)
	})
}

// Stop halts the scheduler and dispatcher, waits for in-flight cycles, and
// persists a final snapshot.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.scheduler.Stop()
		c.dispatcher.Stop()
		if c.runCancel != nil {
			c.runCancel()
		}

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		c.persist(ctx)

		c.logger.Info("accessory stopped", "device_id", c.dev.ID)
	})
}

// Device returns a copy of the device descriptor with the current offline
// flag.
func (c *Coordinator) Device() device.Device {
	c.devMu.RLock()
	defer c.devMu.RUnlock()
	return c.dev
}

// Stats returns a copy of the accessory's cycle counters.
func (c *Coordinator) Stats() Stats {
	return c.stats.snapshot()
}

// Get returns the observed value for a field. An Unknown value means the
// field has never been confirmed by any transport this run.
func (c *Coordinator) Get(field string) device.Value {
	return c.snap.Observed(field)
}

// Set records a desired value for a writable field and signals the
// dispatcher. The call returns immediately; the actual push happens when
// the debounce window closes.
func (c *Coordinator) Set(field string, value any) error {
	dev := c.Device()
	if dev.Offline {
		return ErrOperatorOffline
	}
	if !writable(dev.Type, field) {
		return ErrUnknownSetter
	}
	if err := c.snap.SetDesired(field, value); err != nil {
		return err
	}

	c.dispatcher.Signal()
	return nil
}

// SetOffline flips the operator-controlled offline flag. Takes effect on
// the next cycle: an offline device synthesises fail-safe state instead of
// refreshing and refuses to dispatch commands.
func (c *Coordinator) SetOffline(offline bool) {
	c.devMu.Lock()
	c.dev.Offline = offline
	c.devMu.Unlock()

	c.logger.Info("offline flag changed", "device_id", c.dev.ID, "offline", offline)
}

// ApplyWebhookEvent validates and applies a push event from the webhook
// ingress. The event is applied atomically: either every recognised field
// lands in the snapshot, or a malformed value rejects the whole payload
// and the snapshot is untouched.
func (c *Coordinator) ApplyWebhookEvent(payload map[string]any) error {
	dev := c.Device()

	normalized, err := device.NormalizeStatus(dev.Type, payload)
	if err != nil {
		c.stats.add(func(s *Stats) { s.WebhookDropped++ })
		c.logger.Warn("webhook event rejected", "device_id", dev.ID, "error", err)
		return errors.Join(ErrMalformedEvent, err)
	}
	if len(normalized) == 0 {
		c.stats.add(func(s *Stats) { s.WebhookDropped++ })
		return ErrMalformedEvent
	}

	changed := c.snap.ApplyStatus(normalized)
	c.stats.add(func(s *Stats) { s.WebhookApplied++ })
	c.logger.Debug("webhook event applied",
		"device_id", dev.ID, "fields", len(normalized), "changed", len(changed))

	if c.telemetry != nil {
		c.telemetry.PublishEvent(dev.ID, normalized)
	}
	c.notifyChanged(dev, changed)
	return nil
}

// refresh is one pass of the periodic pipeline: pick a source of truth per
// the connection mode, fetch, and fold the result into the snapshot.
func (c *Coordinator) refresh(ctx context.Context) {
	c.stats.add(func(s *Stats) { s.Refreshes++ })
	dev := c.Device()

	if dev.Offline {
		c.applySafeState(dev, "device marked offline")
		return
	}

	status, err := c.fetch(ctx, dev)
	if err != nil {
		if errors.Is(err, ErrNoTransport) {
			c.applySafeState(dev, "no usable transport")
			return
		}
		c.stats.add(func(s *Stats) { s.RefreshFailures++ })
		c.notice("refresh failed", "device_id", dev.ID, "error", err)
		return
	}

	c.clearNotice()
	c.applyStatus(dev, status)
}

// fetch resolves the transport for one refresh. The connection mode switch
// is exhaustive: adding a mode without a branch here is a compile-time
// conversation, not a silent default.
func (c *Coordinator) fetch(ctx context.Context, dev device.Device) (transport.Status, error) {
	switch dev.Mode {
	case device.ModeRemoteOnly:
		return c.fetchRemote(ctx, dev)

	case device.ModeLocalOnly:
		if c.local == nil {
			return nil, ErrNoTransport
		}
		return c.local.FetchState(ctx, dev)

	case device.ModeLocalWithRemoteFallback:
		if c.local == nil {
			if c.remote == nil {
				return nil, ErrNoTransport
			}
			return c.fetchRemote(ctx, dev)
		}

		status, err := c.local.FetchState(ctx, dev)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, transport.ErrTimeout) || c.remote == nil {
			return nil, err
		}

		c.stats.add(func(s *Stats) { s.Fallbacks++ })
		c.logger.Debug("local scan timed out, falling back to remote", "device_id", dev.ID)
		return c.fetchRemote(ctx, dev)

	default:
		return nil, device.ErrInvalidConnectionMode
	}
}

// fetchRemote wraps the cloud read in the device's retry policy. Missing
// credentials are a configuration state, not a transient fault, so they
// bypass retries entirely.
func (c *Coordinator) fetchRemote(ctx context.Context, dev device.Device) (transport.Status, error) {
	if c.remote == nil {
		return nil, ErrCloudDisabled
	}

	var status transport.Status
	err := c.retry.Run(ctx, c.remote.Name(), func(ctx context.Context) error {
		var err error
		status, err = c.remote.FetchState(ctx, dev)
		return err
	}, c.logAttempt(dev))
	if err != nil {
		return nil, err
	}
	return status, nil
}

// applyStatus normalises a raw transport status and folds it into the
// snapshot, notifying the host of every field that actually changed.
func (c *Coordinator) applyStatus(dev device.Device, status transport.Status) {
	normalized, err := device.NormalizeStatus(dev.Type, status)
	if err != nil {
		c.stats.add(func(s *Stats) { s.RefreshFailures++ })
		c.notice("status rejected", "device_id", dev.ID, "error", err)
		return
	}

	changed := c.snap.ApplyStatus(normalized)
	if len(changed) > 0 {
		c.logger.Debug("state updated", "device_id", dev.ID, "changed", changed)
	}
	c.notifyChanged(dev, changed)
}

// applySafeState synthesises the fail-safe state for the device type so
// the host never acts on stale readings from a device that cannot be
// reached at all.
func (c *Coordinator) applySafeState(dev device.Device, reason string) {
	changed := c.snap.ApplyStatus(device.SafeState(dev.Type))
	c.stats.add(func(s *Stats) { s.SafeStateApplied++ })
	c.notice("fail-safe state applied", "device_id", dev.ID, "reason", reason)
	c.notifyChanged(dev, changed)
}

// notifyChanged fans confirmed changes out to the host notifier and the
// optional telemetry and history sinks, then persists the snapshot.
func (c *Coordinator) notifyChanged(dev device.Device, changed []string) {
	if len(changed) == 0 {
		return
	}

	changedValues := make(map[string]any, len(changed))
	for _, field := range changed {
		v := c.snap.Observed(field)
		if !v.IsKnown() {
			continue
		}
		changedValues[field] = v.Data

		c.notifier.UpdateField(dev.ID, field, v.Data)
		if field == device.FieldBattery {
			c.notifier.UpdateLowBattery(dev.ID, device.LowBattery(v.Data))
		}
		if c.history != nil && dev.TracksHistory(field) {
			c.history.WriteFieldSample(dev.ID, field, v.Data)
		}
	}

	if c.telemetry != nil && len(changedValues) > 0 {
		c.telemetry.PublishState(dev.ID, changedValues)
	}

	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	c.persist(pctx)
}

// dispatchCycle is one debounce-window flush: walk the writable fields in
// declared order, push every dirty one, and schedule a verification
// refresh if anything moved.
func (c *Coordinator) dispatchCycle(ctx context.Context) {
	c.stats.add(func(s *Stats) { s.DispatchCycles++ })
	dev := c.Device()

	if dev.Offline {
		c.logger.Warn("dispatch skipped, device marked offline", "device_id", dev.ID)
		return
	}

	pushed := false
	for _, field := range device.WritableFieldsFor(dev.Type) {
		fs, ok := c.snap.Get(field)
		if !ok || !fs.Dirty() {
			continue
		}

		cmd, err := commandFor(field, fs.Desired.Data)
		if err != nil {
			c.snap.MarkPushFailed(field, err)
			c.notifier.UpdateFault(dev.ID, field, true)
			c.stats.add(func(s *Stats) { s.CommandFailures++ })
			c.logger.Error("unmappable desired value", "device_id", dev.ID, "field", field, "error", err)
			continue
		}

		if err := c.push(ctx, dev, cmd); err != nil {
			c.snap.MarkPushFailed(field, err)
			c.notifier.UpdateFault(dev.ID, field, true)
			c.stats.add(func(s *Stats) { s.CommandFailures++ })
			c.logger.Warn("command failed",
				"device_id", dev.ID, "field", field, "command", cmd.Command, "error", err)
			continue
		}

		c.snap.ConfirmPush(field, fs.Desired.Data, time.Now())
		c.notifier.UpdateField(dev.ID, field, fs.Desired.Data)
		c.notifier.UpdateFault(dev.ID, field, false)
		c.stats.add(func(s *Stats) { s.CommandsSent++ })
		pushed = true
		c.logger.Debug("command sent",
			"device_id", dev.ID, "field", field, "command", cmd.Command, "parameter", cmd.Parameter)
	}

	if pushed {
		c.scheduleVerification()
	}
}

// push sends one command over the channel order dictated by the connection
// mode. Remote sends are retry-wrapped; the local-to-remote fallback is a
// single extra attempt, not a second retry budget.
func (c *Coordinator) push(ctx context.Context, dev device.Device, cmd transport.Command) error {
	switch dev.Mode {
	case device.ModeLocalOnly:
		if c.local == nil {
			return ErrNoTransport
		}
		return c.local.SendCommand(ctx, dev, cmd)

	case device.ModeRemoteOnly:
		return c.sendRemote(ctx, dev, cmd)

	case device.ModeLocalWithRemoteFallback:
		if c.local == nil {
			return c.sendRemote(ctx, dev, cmd)
		}

		err := c.local.SendCommand(ctx, dev, cmd)
		if err == nil || c.remote == nil {
			return err
		}

		c.stats.add(func(s *Stats) { s.Fallbacks++ })
		c.logger.Debug("local write failed, falling back to remote",
			"device_id", dev.ID, "command", cmd.Command, "error", err)
		return c.sendRemote(ctx, dev, cmd)

	default:
		return device.ErrInvalidConnectionMode
	}
}

// sendRemote wraps a cloud write in the device's retry policy.
func (c *Coordinator) sendRemote(ctx context.Context, dev device.Device, cmd transport.Command) error {
	if c.remote == nil {
		return ErrCloudDisabled
	}
	return c.retry.Run(ctx, c.remote.Name(), func(ctx context.Context) error {
		return c.remote.SendCommand(ctx, dev, cmd)
	}, c.logAttempt(dev))
}

// scheduleVerification queues a one-shot refresh shortly after a dispatch
// cycle so pushed values are confirmed against the device rather than
// trusted forever.
func (c *Coordinator) scheduleVerification() {
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	time.AfterFunc(c.verifyDelay, func() {
		if ctx.Err() != nil {
			return
		}
		c.scheduler.TriggerOnce(ctx)
	})
}

// logAttempt records intermediate retry failures at debug level; the
// final outcome is reported by the caller.
func (c *Coordinator) logAttempt(dev device.Device) func(transport.Attempt) {
	return func(a transport.Attempt) {
		if a.Err == nil {
			return
		}
		c.logger.Debug("attempt failed",
			"device_id", dev.ID, "channel", a.Channel, "attempt", a.Index, "error", a.Err)
	}
}

// seedFromStore loads the persisted snapshot, if any, as the starting
// observed state. Best-effort: a missing or unreadable snapshot just means
// starting from unknowns.
func (c *Coordinator) seedFromStore(ctx context.Context) {
	if c.store == nil {
		return
	}

	state, err := c.store.Load(ctx, c.dev.ID)
	if err != nil {
		if !errors.Is(err, device.ErrSnapshotNotFound) {
			c.logger.Warn("snapshot load failed", "device_id", c.dev.ID, "error", err)
		}
		return
	}

	normalized, err := device.NormalizeStatus(c.dev.Type, state)
	if err != nil {
		c.logger.Warn("persisted snapshot rejected", "device_id", c.dev.ID, "error", err)
		return
	}

	c.snap.SeedObserved(normalized)
	c.logger.Debug("snapshot seeded", "device_id", c.dev.ID, "fields", len(normalized))
}

// persist writes the current observed state to the store. Failures are
// logged and swallowed: persistence is a convenience, never a dependency.
func (c *Coordinator) persist(ctx context.Context) {
	if c.store == nil {
		return
	}

	state := c.snap.ExportObserved()
	if len(state) == 0 {
		return
	}
	if err := c.store.Save(ctx, c.dev.ID, state); err != nil {
		c.logger.Warn("snapshot save failed", "device_id", c.dev.ID, "error", err)
	}
}

// notice logs a degraded-state message once per continuous degradation.
// The key is the message itself; a different degradation logs immediately.
func (c *Coordinator) notice(msg string, args ...any) {
	c.noticeMu.Lock()
	repeat := c.lastNotice == msg
	c.lastNotice = msg
	c.noticeMu.Unlock()

	if repeat {
		c.logger.Debug(msg, args...)
		return
	}
	c.logger.Warn(msg, args...)
}

// clearNotice re-arms notice after a healthy cycle.
func (c *Coordinator) clearNotice() {
	c.noticeMu.Lock()
	c.lastNotice = ""
	c.noticeMu.Unlock()
}

func writable(t device.DeviceType, field string) bool {
	for _, f := range device.WritableFieldsFor(t) {
		if f == field {
			return true
		}
	}
	return false
}
