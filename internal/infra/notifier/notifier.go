// Package notifier provides abstraction for publishing a finished report to
// a downstream note service. It defines the Notifier interface so that
// different publish mechanisms (Discord, Slack, a future email digest) can
// be used interchangeably through dependency injection.
//
// The package includes implementations for Discord and Slack webhooks and
// a no-op notifier for when downstream publishing is disabled.
package notifier

import (
	"context"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// Notifier is an interface for publishing a synthesized report downstream.
// Implementations should handle rate limiting, retries, and error logging
// internally; the report synthesizer treats every call as best-effort and
// never fails a report run because a publish call failed.
type Notifier interface {
	// PublishReport sends a notification about a newly synthesized report.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - report: The report to publish (must not be nil)
	//
	// Returns:
	//   - error: Non-nil if the publish failed after all retry attempts
	//
	// Implementations should:
	//   - Generate a unique request ID for tracing
	//   - Apply rate limiting to prevent API abuse
	//   - Retry transient failures with a linear backoff
	//   - Log all attempts with the request ID for debugging
	//   - Respect context cancellation
	PublishReport(ctx context.Context, report *entity.Report) error
}
