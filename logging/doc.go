// Package logging provides a minimal logging interface and adapters for llmgate.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the registry, adapters and gateway use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - New, building json, text or tint (colored console) slog handlers from a Config
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelDebug, Format: "tint"})
//	gw := gateway.New(reg, gateway.WithLogger(logger))
//
// Arguments after the message are slog style key/value pairs.
package logging
