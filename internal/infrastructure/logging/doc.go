// Package logging provides structured logging for the KNXnet/IP tools.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the monitor and CLI.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "knxipmon", "1.0.0")
//	logger.Info("joined multicast group", "group", "224.0.23.12:3671")
//	logger.Error("capture failed", "error", err)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
