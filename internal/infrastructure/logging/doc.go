// Package logging provides structured logging for the DIRIGERA bridge.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the whole process.
//
// # Features
//
//   - Text output for interactive use (human-readable, the default)
//   - JSON output for log shipping (machine-parsable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig section:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting bridge", "hub", cfg.Hub.Host)
//	logger.Error("publish failed", "error", err)
//
// # Security
//
// Never log the hub token or MQTT password. Log host/topic identifiers only.
package logging
