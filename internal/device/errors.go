package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrSnapshotNotFound) {
//	    // start with an empty snapshot
//	}
var (
	// ErrInvalidConnectionMode is returned when a connection mode string
	// is not one of the closed set of modes.
	ErrInvalidConnectionMode = errors.New("device: invalid connection mode")

	// ErrUnknownDeviceType is returned when a device type is not recognised.
	ErrUnknownDeviceType = errors.New("device: unknown type")

	// ErrUnknownField is returned when a field name is not declared for
	// the device type.
	ErrUnknownField = errors.New("device: unknown field")

	// ErrSnapshotNotFound is returned when no persisted snapshot exists
	// for a device.
	ErrSnapshotNotFound = errors.New("device: snapshot not found")

	// ErrMalformedFrame is returned when an advertisement frame is too
	// short or otherwise undecodable for the device type.
	ErrMalformedFrame = errors.New("device: malformed advertisement frame")
)
