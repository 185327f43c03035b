package webhook

import "errors"

// Domain errors for the webhook package.
var (
	// ErrMalformedPayload is returned when a request body is not a
	// well-formed event envelope.
	ErrMalformedPayload = errors.New("webhook: malformed payload")

	// ErrNotRegistered is returned when an event names a device no
	// accessory has registered for.
	ErrNotRegistered = errors.New("webhook: no accessory registered for device")

	// ErrAlreadyRegistered is returned when two accessories claim the
	// same device address.
	ErrAlreadyRegistered = errors.New("webhook: device address already registered")
)
