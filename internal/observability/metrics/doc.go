// Package metrics provides the Prometheus metrics registry for one
// cmd/worker task invocation.
//
// This package centralizes:
//   - Job metrics (task run count and duration, by outcome)
//   - Pipeline metrics (accounts tracked, posts ingested, enrichments
//     completed, fetch batch duration, model call duration, report
//     variants synthesized)
//
// Since cmd/worker is a one-shot CLI rather than a long-running server,
// metrics are pushed to an optional Pushgateway after the task
// completes instead of being served from a local /metrics endpoint.
//
// Example usage:
//
//	import "github.com/mengke002/info-collector-X/internal/observability/metrics"
//
//	func runTask(task string) {
//	    start := time.Now()
//	    err := doWork()
//	    metrics.RecordJobRun(task, err == nil, time.Since(start))
//	    metrics.PushToGateway(os.Getenv("PUSHGATEWAY_ADDR"), task)
//	}
package metrics
