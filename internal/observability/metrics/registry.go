// Package metrics provides the process-wide Prometheus metrics for one
// worker task invocation. Each cmd/worker run pushes its counters to an
// optional Pushgateway after the task completes rather than serving a
// persistent /metrics endpoint, since a one-shot CLI task has exited
// long before any scrape could reach it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job metrics track one task invocation's outcome, labeled by task name.
var (
	// JobRunsTotal counts task invocations by task and outcome.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of worker task invocations",
		},
		[]string{"task", "outcome"}, // outcome: success, failure
	)

	// JobDuration measures one task invocation's wall-clock duration.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of a worker task invocation",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"task"},
	)
)

// Pipeline metrics track domain-level throughput across tasks.
var (
	// AccountsTracked reports the number of accounts the scheduler
	// considers active at the time a tier-selection task runs.
	AccountsTracked = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accounts_tracked",
			Help: "Number of accounts tracked by tier",
		},
		[]string{"tier"},
	)

	// PostsIngestedTotal counts posts persisted by the fetch worker
	// pool, labeled by tier.
	PostsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_ingested_total",
			Help: "Total number of posts ingested from the gateway",
		},
		[]string{"tier"},
	)

	// EnrichmentsCompletedTotal counts enrichment outcomes by status.
	EnrichmentsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichments_completed_total",
			Help: "Total number of posts enriched",
		},
		[]string{"status"}, // status: success, failure, skipped
	)

	// FetchBatchDuration measures one tier's fetch batch wall time.
	FetchBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_batch_duration_seconds",
			Help:    "Time taken to run one fetch batch",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"tier"},
	)

	// ModelCallDuration measures one model backend call's latency.
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_call_duration_seconds",
			Help:    "Duration of a model backend call",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"backend", "mode"}, // mode: text, vision
	)

	// ReportVariantsTotal counts report synthesis outcomes by kind.
	ReportVariantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_variants_total",
			Help: "Total number of report variants synthesized",
		},
		[]string{"kind", "outcome"}, // outcome: success, failure
	)
)

// RecordJobRun records one task invocation's outcome and duration.
func RecordJobRun(task string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	JobRunsTotal.WithLabelValues(task, outcome).Inc()
	JobDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// PushToGateway pushes every registered metric to a Prometheus
// Pushgateway, grouped under the given task's job name. gatewayAddr
// empty is a no-op, since most deployments invoke this binary from a
// scheduler with no Pushgateway configured.
func PushToGateway(gatewayAddr, task string) error {
	if gatewayAddr == "" {
		return nil
	}
	return push.New(gatewayAddr, "info_collector_worker").
		Grouping("task", task).
		Gatherer(prometheus.DefaultGatherer).
		Push()
}
