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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ClassificationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ewaste_classification_decisions_total",
			Help: "Category decisions by resulting category and deciding rule",
		},
		[]string{"category", "source"},
	)

	EstimatedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ewaste_estimated_items_total",
			Help: "Valued items by device category and suggestion",
		},
		[]string{"device_category", "suggestion"},
	)

	EstimateTotalValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ewaste_estimate_total_max_value",
			Help:    "Upper bound of the aggregate value per estimate request",
			Buckets: prometheus.ExponentialBuckets(500, 2, 12),
		},
	)

	FacilityCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facility_cache_lookups_total",
			Help: "Facility list cache lookups by result",
		},
		[]string{"result"},
	)

	PickupBookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ewaste_pickup_bookings_total",
			Help: "Pickup booking attempts by result",
		},
		[]string{"result"},
	)

	VisionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vision_request_duration_seconds",
			Help: "Duration of calls to the image classification service",
		},
		[]string{"outcome"},
	)
)
