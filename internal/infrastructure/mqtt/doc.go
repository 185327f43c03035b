// Package mqtt provides the MQTT telemetry client for BotLink Core.
//
// The service is publish-only on MQTT. Three surfaces exist:
//
//   - botlink/state/{device_id}: per-cycle state changes, retained
//   - botlink/event/{device_id}: applied webhook push events
//   - botlink/health: periodic service health reports
//
// Plus botlink/system/status carrying online/offline status including the
// Last Will message the broker publishes on an unexpected disconnect.
//
// The client reconnects automatically with backoff; publishes while
// disconnected fail fast with ErrNotConnected and callers treat telemetry
// as best-effort.
package mqtt
