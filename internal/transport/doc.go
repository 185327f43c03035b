// Package transport provides the two device transports — the local radio
// (broadcast/scan) channel and the remote cloud HTTP API — behind one
// Channel interface, plus the per-device retry policy for remote calls.
//
// Channels are side-effect-only on the wire: they never mutate accessory
// state. Channel selection, fallback, and cache writes belong to the
// accessory coordinator.
//
// # Contracts
//
//   - Local fetch: one time-boxed scan session per call; first matching
//     frame wins; an empty budget is ErrTimeout.
//   - Remote calls: only status codes 100 and 200 are success, enforced at
//     both the HTTP layer and the response envelope.
//   - Retry wraps remote calls only and returns the final attempt's error.
package transport
