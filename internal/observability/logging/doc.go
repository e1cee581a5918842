// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Context propagation via WithLogger/FromContext
//   - Configurable log levels
//
// Example usage:
//
//	import "github.com/mengke002/info-collector-X/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runTask(ctx context.Context, logger *slog.Logger) {
//	    ctx = logging.WithLogger(ctx, logger)
//	    logging.FromContext(ctx).Info("task started")
//	}
package logging
