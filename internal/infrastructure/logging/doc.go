// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every entry carries a "service" field; components derive child loggers
// with Named ("pricer", "list", "http").
//
// Example Usage:
//
//	logger := logging.NewOrNop(logging.DefaultConfig())
//	logger.Info("Server starting", zap.String("port", "8080"))
//	logger.Error("List backend unreachable", zap.Error(err))
package logging
