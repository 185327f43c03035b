// Package device defines the data model for bridged devices: identity and
// capability descriptors, the tri-state field values synchronized between
// the accessory and its transports, the per-accessory snapshot, and the
// SQLite store that seeds snapshots across restarts.
//
// # Field tri-state
//
// Every field value is Unknown, Known(data), or Error(cause). Unknown means
// "never yet confirmed" and must never be reported as a default; the
// accessory coordinator keeps the last Known value on failure paths rather
// than degrading it.
//
// # Ownership
//
// Each Snapshot is owned by exactly one accessory coordinator. Everything
// else receives copies. Refresh, dispatch, and webhook goroutines may
// interleave on different fields of the same snapshot; the snapshot's own
// lock keeps individual field updates atomic.
package device
