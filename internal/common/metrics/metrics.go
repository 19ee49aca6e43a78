// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LettersGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letters_generated_total",
			Help: "Total number of engagement letters written",
		},
		[]string{"letter_type", "loan_type"},
	)

	LettersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letters_failed_total",
			Help: "Total number of letter generations that failed, by stage",
		},
		[]string{"stage"},
	)

	VendorLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_lookups_total",
			Help: "Vendor resolutions by outcome",
		},
		[]string{"outcome"},
	)

	BatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_items_total",
			Help: "Batch records processed by result",
		},
		[]string{"result"},
	)

	LetterGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "letter_generation_duration_seconds",
			Help:    "Time spent filling and writing one letter",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"letter_type"},
	)

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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Failure stages reported on letters_failed_total.
const (
	StageTemplate   = "template"
	StageLoad       = "load"
	StageSubstitute = "substitute"
	StageWrite      = "write"
)
