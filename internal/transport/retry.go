package transport

import (
	"context"
	"time"
)

// RetryPolicy bounds repeated attempts of a remote API call.
//
// MaxAttempts and Delay are per-device configuration, not global constants:
// a misbehaving device gets its own backoff schedule. The policy wraps
// remote calls only — a local scan's window is already a detection timeout,
// and repeating a scan that saw nothing would just repeat the silence.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Attempt is the transient record of one try. Lifetime is one Run call;
// it exists for the OnAttempt logging hook and is never persisted.
type Attempt struct {
	Index   int
	Channel string
	Err     error
}

// Run executes op sequentially up to MaxAttempts times, sleeping Delay
// between attempts. It returns nil on the first success; if every attempt
// fails it returns the final attempt's error (earlier errors are not
// retained). onAttempt, if non-nil, observes each failed attempt.
func (p RetryPolicy) Run(ctx context.Context, channel string, op func(context.Context) error, onAttempt func(Attempt)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if onAttempt != nil {
			onAttempt(Attempt{Index: i, Channel: channel, Err: lastErr})
		}

		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	return lastErr
}
