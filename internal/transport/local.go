package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/botlink-core/internal/device"
)

// Advertisement is one broadcast frame seen during a scan session.
// Frames come from the radio driver; this package only filters and
// forwards them.
type Advertisement struct {
	// Address is the sender's colon-separated lowercase radio address.
	Address string

	// Model is the model tag carried in the frame.
	Model string

	// ServiceData is the raw advertisement payload consumed by the
	// device-specific decoders.
	ServiceData []byte
}

// Scanner is the local radio driver, consumed as a black box.
type Scanner interface {
	// Scan streams broadcast frames to onFrame until the context is done
	// or Scan fails. A clean context expiry is not an error.
	Scan(ctx context.Context, onFrame func(Advertisement)) error

	// Write sends a command payload to an addressed device.
	Write(ctx context.Context, address string, payload []byte) error
}

// LocalRadioChannel reads state from broadcast frames and writes commands
// over the local radio.
//
// A fetch opens exactly one time-boxed scan session per call; the scan
// budget doubles as the detection timeout, so callers do not retry local
// reads — a missed advertisement is reported once per poll.
type LocalRadioChannel struct {
	scanner Scanner
}

// NewLocalRadioChannel creates a local radio channel over a driver.
func NewLocalRadioChannel(scanner Scanner) *LocalRadioChannel {
	return &LocalRadioChannel{scanner: scanner}
}

// Name identifies the channel in logs and telemetry.
func (c *LocalRadioChannel) Name() string {
	return "local"
}

// FetchState opens one scan session bounded by the device's scan budget,
// filters frames by address and model, and resolves with the first match.
// Fails with ErrTimeout if the budget expires with no matching frame.
func (c *LocalRadioChannel) FetchState(ctx context.Context, dev device.Device) (Status, error) {
	address, err := ResolveAddress(dev.ID)
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, dev.ScanDuration)
	defer cancel()

	type result struct {
		status Status
		err    error
	}
	found := make(chan result, 1)

	scanErr := c.scanner.Scan(scanCtx, func(adv Advertisement) {
		if !matches(adv, address, dev.Model) {
			return
		}

		status, decodeErr := device.DecodeAdvertisement(dev.Type, adv.ServiceData)
		select {
		case found <- result{status: Status(status), err: decodeErr}:
			cancel() // First matching frame ends the session.
		default:
		}
	})

	select {
	case r := <-found:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProtocol, r.err)
		}
		return r.status, nil
	default:
	}

	if scanErr != nil && !errors.Is(scanErr, context.DeadlineExceeded) && !errors.Is(scanErr, context.Canceled) {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, scanErr)
	}

	// The budget expired with nothing matching: the built-in detection timeout.
	return nil, fmt.Errorf("%w: no advertisement within %v", ErrTimeout, dev.ScanDuration)
}

// SendCommand resolves the device address and writes one command payload.
func (c *LocalRadioChannel) SendCommand(ctx context.Context, dev device.Device, cmd Command) error {
	address, err := ResolveAddress(dev.ID)
	if err != nil {
		return err
	}

	payload := encodeLocalCommand(cmd)

	if err := c.scanner.Write(ctx, address, payload); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}

	return nil
}

// matches filters a frame by address and, when the device declares one,
// by model tag.
func matches(adv Advertisement, address, model string) bool {
	if !strings.EqualFold(adv.Address, address) {
		return false
	}
	return model == "" || adv.Model == model
}

// encodeLocalCommand flattens a command triple into the radio payload form
// understood by the drivers: "command" or "command:parameter".
func encodeLocalCommand(cmd Command) []byte {
	if cmd.Parameter == "" || cmd.Parameter == "default" {
		return []byte(cmd.Command)
	}
	return []byte(cmd.Command + ":" + cmd.Parameter)
}
