package accessory

// Logger is the logging interface used throughout the package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier pushes confirmed observed changes outward to the host
// framework. The core never calls host-framework setters; this is the
// only outbound surface.
//
// Implementations must not block: they are called from refresh, dispatch,
// and webhook paths.
type Notifier interface {
	// UpdateField reports a confirmed observed value for a field.
	UpdateField(deviceID, field string, value any)

	// UpdateFault reports a field's health marker. Raised on push failure,
	// lowered when the field confirms again.
	UpdateFault(deviceID, field string, fault bool)

	// UpdateLowBattery reports the derived low-battery indicator.
	UpdateLowBattery(deviceID string, low bool)
}

// TelemetrySink publishes device activity outward. Best-effort, never
// blocks the core: implementations swallow their own failures.
type TelemetrySink interface {
	// PublishState sends a per-cycle message containing only the fields
	// that changed.
	PublishState(deviceID string, changed map[string]any)

	// PublishEvent sends the normalized fields of an applied webhook
	// push event.
	PublishEvent(deviceID string, fields map[string]any)
}

// HistoryWriter records a timestamped sample for a field configured for
// historical tracking. Best-effort, never blocks the core.
type HistoryWriter interface {
	WriteFieldSample(deviceID, field string, value any)
}

// noopNotifier discards updates; used when no host framework is attached.
type noopNotifier struct{}

func (noopNotifier) UpdateField(string, string, any)  {}
func (noopNotifier) UpdateFault(string, string, bool) {}
func (noopNotifier) UpdateLowBattery(string, bool)    {}
