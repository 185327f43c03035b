package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"
)

// UUIDs of the vendor GATT service and its command characteristic.
const (
	commandServiceUUID = "cba20d00-224d-11e6-9fb8-0002a5d5c51b"
	commandCharUUID    = "cba20002-224d-11e6-9fb8-0002a5d5c51b"
)

// BLEScanner drives the host Bluetooth adapter.
//
// It implements Scanner: advertisement frames are streamed to the caller
// during a scan session, and writes connect, push one payload to the
// command characteristic, and disconnect.
//
// The adapter allows one scan session at a time; concurrent FetchState
// calls from different accessories serialise on an internal mutex.
type BLEScanner struct {
	adapter *bluetooth.Adapter

	enableOnce sync.Once
	enableErr  error

	scanMu sync.Mutex
}

// NewBLEScanner wraps the default host adapter. The adapter is enabled
// lazily on first use.
func NewBLEScanner() *BLEScanner {
	return &BLEScanner{adapter: bluetooth.DefaultAdapter}
}

func (s *BLEScanner) enable() error {
	s.enableOnce.Do(func() {
		if err := s.adapter.Enable(); err != nil {
			s.enableErr = fmt.Errorf("transport: enabling bluetooth adapter: %w", err)
		}
	})
	return s.enableErr
}

// Scan streams advertisement frames until the context is done. A clean
// context expiry returns nil.
func (s *BLEScanner) Scan(ctx context.Context, onFrame func(Advertisement)) error {
	if err := s.enable(); err != nil {
		return err
	}

	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			//nolint:errcheck // stopping a finished scan is harmless
			s.adapter.StopScan()
		case <-done:
		}
	}()

	err := s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		adv := Advertisement{
			Address: strings.ToLower(result.Address.String()),
		}
		for _, sd := range result.AdvertisementPayload.ServiceData() {
			if len(sd.Data) == 0 {
				continue
			}
			adv.Model = string(sd.Data[0])
			adv.ServiceData = sd.Data
			break
		}
		if adv.ServiceData == nil {
			return
		}
		onFrame(adv)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("transport: scan: %w", err)
	}
	return nil
}

// Write connects to the addressed device, writes the payload to the
// command characteristic, and disconnects.
func (s *BLEScanner) Write(ctx context.Context, address string, payload []byte) error {
	if err := s.enable(); err != nil {
		return err
	}

	mac, err := bluetooth.ParseMAC(strings.ToUpper(address))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	dev, err := s.adapter.Connect(
		bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}},
		bluetooth.ConnectionParams{},
	)
	if err != nil {
		return fmt.Errorf("transport: connect %s: %w", address, err)
	}
	//nolint:errcheck // disconnect failure leaves nothing actionable
	defer dev.Disconnect()

	if err := ctx.Err(); err != nil {
		return err
	}

	char, err := s.commandCharacteristic(dev)
	if err != nil {
		return err
	}

	if _, err := char.WriteWithoutResponse(payload); err != nil {
		return fmt.Errorf("transport: write %s: %w", address, err)
	}
	return nil
}

func (s *BLEScanner) commandCharacteristic(dev bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	var zero bluetooth.DeviceCharacteristic

	svcUUID, err := bluetooth.ParseUUID(commandServiceUUID)
	if err != nil {
		return zero, fmt.Errorf("transport: %w", err)
	}
	charUUID, err := bluetooth.ParseUUID(commandCharUUID)
	if err != nil {
		return zero, fmt.Errorf("transport: %w", err)
	}

	svcs, err := dev.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil || len(svcs) == 0 {
		return zero, fmt.Errorf("%w: command service not found: %v", ErrProtocol, err)
	}

	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil || len(chars) == 0 {
		return zero, fmt.Errorf("%w: command characteristic not found: %v", ErrProtocol, err)
	}

	return chars[0], nil
}
