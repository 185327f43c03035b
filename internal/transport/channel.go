package transport

import (
	"context"

	"github.com/nerrad567/botlink-core/internal/device"
)

// Status is the decoded field map returned by one state read.
// Keys match the device package's field names; callers translate a Status
// into snapshot writes — channels never mutate accessory state directly.
type Status map[string]any

// Command is one state-changing instruction for a device.
// The wire form matches the remote API's command envelope; the local
// channel encodes the same triple into a radio payload.
type Command struct {
	Command   string `json:"command"`
	Parameter string `json:"parameter"`
	Type      string `json:"commandType"`
}

// NewCommand builds a standard command with the default command type.
func NewCommand(command, parameter string) Command {
	return Command{
		Command:   command,
		Parameter: parameter,
		Type:      "command",
	}
}

// Channel is one transport to a device: the local radio or the remote API.
//
// Both implementations are side-effect-only on the wire. FetchState performs
// exactly one read (one scan session or one HTTP GET); SendCommand performs
// exactly one state-changing call. Retry and fallback live one level up.
type Channel interface {
	// Name identifies the channel in logs and telemetry ("local", "remote").
	Name() string

	// FetchState performs one state read.
	// Fails with ErrTimeout (local scan saw nothing), ErrNotFound, or
	// ErrProtocol.
	FetchState(ctx context.Context, dev device.Device) (Status, error)

	// SendCommand performs one state-changing call.
	// Fails with ErrTimeout, ErrRejected, or ErrProtocol.
	SendCommand(ctx context.Context, dev device.Device, cmd Command) error
}
