// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Log Levels:
//   - Debug: Verbose debugging information (probe injection, coalescing)
//   - Info: General informational messages
//   - Warn: Recoverable anomalies (untrusted origins, unknown actions)
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// Features:
//   - Zero-allocation logging in production
//   - Structured fields for context
//   - Component-tagged child loggers
//   - Configurable output paths
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8090"))
//	det := logger.Component("detect")
//	det.Debug("Envelope rejected", zap.String("reason", "missing uri"))
package logging
