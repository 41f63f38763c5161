// Package metrics defines and registers all custom Prometheus metrics for the
// feedback service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedback"

// ── Feedback metrics ──────────────────────────────────────────────────────────

// SubmittedTotal counts feedback records created.
// Label:
//   - has_image: "true" or "false"
var SubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submitted_total",
		Help:      "Total number of feedback records submitted.",
	},
	[]string{"has_image"},
)

// DeletedTotal counts feedback records removed by admins.
var DeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_total",
		Help:      "Total number of feedback records deleted.",
	},
)

// ErrorsTotal counts failed feedback operations.
// Labels:
//   - op: "submit", "list", "delete"
//   - reason: "validation", "unauthorized", "forbidden", "not_found", "storage", "persistence", "internal"
var ErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of failed feedback operations.",
	},
	[]string{"op", "reason"},
)

// SubmitDuration measures a submission end-to-end, upload included.
// Label:
//   - result: "ok" or "error"
var SubmitDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submit_duration_seconds",
		Help:      "Duration of feedback submission including image upload.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Blob cleanup metrics ──────────────────────────────────────────────────────

// BlobCleanupTotal counts asynchronous blob removals.
// Label:
//   - result: "removed", "failed", "dropped" (queue full)
var BlobCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_total",
		Help:      "Total number of blob cleanup jobs, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks pending jobs per cleanup worker.
// Label:
//   - worker_id: numeric worker index
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cleanup_queue_depth",
		Help:      "Current number of blob removals pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
