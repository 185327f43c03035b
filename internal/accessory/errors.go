package accessory

import "errors"

// Domain errors for the accessory package.
var (
	// ErrOperatorOffline is returned when the operator has marked the
	// device offline; no transport is attempted.
	ErrOperatorOffline = errors.New("accessory: device marked offline by operator")

	// ErrCloudDisabled is returned when a device requires the cloud but
	// cloud access is disabled or unconfigured.
	ErrCloudDisabled = errors.New("accessory: cloud access disabled")

	// ErrNoTransport is returned when a device has no usable transport.
	ErrNoTransport = errors.New("accessory: no usable transport")

	// ErrMalformedEvent is returned when a webhook payload is not
	// well-formed for the device type. The event is dropped whole; no
	// partial field updates are applied.
	ErrMalformedEvent = errors.New("accessory: malformed webhook event")

	// ErrUnknownSetter is returned when a set call names a field the
	// device type cannot write.
	ErrUnknownSetter = errors.New("accessory: field is not writable")
)
