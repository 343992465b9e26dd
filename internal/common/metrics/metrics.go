// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// PushDispatchTotal counts individual push attempts. outcome is "success"
	// or the gateway error code.
	PushDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_total",
			Help: "Total number of push notification attempts",
		},
		[]string{"event_type", "outcome"},
	)

	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_runs_total",
			Help: "Total number of scheduled scans by scanner and status",
		},
		[]string{"scanner", "status"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Duration of scheduled scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scanner"},
	)

	InvalidTokensRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_invalid_tokens_recorded_total",
			Help: "Total number of unregistered tokens recorded for cleanup",
		},
	)
)
