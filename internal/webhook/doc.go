// Package webhook provides the HTTP ingress for push events.
//
// Devices whose cloud account has webhooks enabled deliver state changes
// as POSTed JSON envelopes. The server resolves the target accessory via a
// registry keyed on normalised device address and hands the event's
// context block to that accessory, which validates and applies it
// atomically. Events for unregistered devices are acknowledged and
// dropped.
//
// Lifecycle follows the usual pattern:
//
//	srv, err := webhook.New(cfg, registry, logger)
//	srv.Start(ctx)
//	defer srv.Close()
package webhook
