// Package tracing provides a thin OpenTelemetry tracer for spanning
// report synthesis fan-out calls.
//
// A single global tracer is exposed via GetTracer. The report synthesizer
// opens one span per mode (daily/weekly/monthly) and a child span per
// model call, so a configured exporter can show how fan-out time splits
// across report variants and backend latency.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "report.fanout.daily")
//	defer span.End()
package tracing
