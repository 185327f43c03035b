// Package logging provides structured logging for BotLink Core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "devices", 4)
//	logger.Error("refresh failed", "error", err)
//
// # Security
//
// Never log the cloud token or secret. Log key prefixes at most.
package logging
