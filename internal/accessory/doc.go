// Package accessory orchestrates the synchronisation lifecycle of bridged
// devices.
//
// Each device gets one Coordinator, which owns a state snapshot (the single
// source of truth exposed to hosts), a RefreshScheduler that polls a
// transport on a fixed interval with an overlap guard, and a
// CommandDispatcher that coalesces host writes inside a debounce window so
// a burst of setter calls becomes one command per field.
//
// Reads and writes flow through the device's connection mode: local radio,
// remote cloud API, or local with remote fallback. Remote calls are wrapped
// in a bounded retry policy; local scans rely on their scan timeout
// instead. Webhook push events enter through ApplyWebhookEvent and are
// applied atomically.
//
// Confirmed state changes fan out to a host Notifier and to optional
// telemetry and history sinks, and the observed state is persisted
// best-effort so restarts begin warm. A HealthReporter aggregates
// per-accessory cycle counters into periodic MQTT health messages.
package accessory
