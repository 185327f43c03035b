package transport

import "errors"

// Domain errors for the transport package.
//
// These form the error taxonomy the sync coordinator switches on:
//
//	if errors.Is(err, transport.ErrTimeout) {
//	    // scan saw nothing; consider remote fallback
//	}
var (
	// ErrTimeout is returned when no data arrived within the scan budget.
	// Local radio only; remote calls surface ErrRejected or ErrProtocol.
	ErrTimeout = errors.New("transport: timed out")

	// ErrNotFound is returned when the remote API does not know the device.
	ErrNotFound = errors.New("transport: device not found")

	// ErrRejected is returned when a remote call returned a non-success
	// status at either the HTTP or the envelope layer.
	ErrRejected = errors.New("transport: rejected")

	// ErrProtocol is returned when a response is malformed or has an
	// unexpected shape.
	ErrProtocol = errors.New("transport: protocol error")

	// ErrInvalidAddress is returned when a device identifier cannot be
	// resolved to a radio address.
	ErrInvalidAddress = errors.New("transport: invalid device address")

	// ErrNoCredentials is returned when the remote channel is used
	// without cloud credentials.
	ErrNoCredentials = errors.New("transport: cloud credentials missing")
)
