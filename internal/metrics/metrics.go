// Package metrics exposes Prometheus instrumentation for the extraction
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jobsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ocr_jobs_started_total",
	Help: "Total number of OCR analysis jobs dispatched",
})

var itemsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pipeline_items_failed_total",
	Help: "Total number of pipeline items that failed, labelled by reason",
}, []string{"reason"})

var recordsStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "records_stored_total",
	Help: "Total number of clinical records upserted",
})

var indicatorMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "indicator_misses_total",
	Help: "Requested indicators with no candidate above the match threshold",
})

var externalRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "external_retries_total",
	Help: "Retry attempts against external services, labelled by operation",
}, []string{"operation"})

var processingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "notification_processing_duration_seconds",
	Help:    "Total time spent processing one completion notification.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

func IncrementJobsStarted() {
	jobsStartedTotal.Inc()
}

func IncrementItemsFailed(reason string) {
	itemsFailedTotal.WithLabelValues(reason).Inc()
}

func IncrementRecordsStored() {
	recordsStoredTotal.Inc()
}

func IncrementIndicatorMisses() {
	indicatorMissesTotal.Inc()
}

func IncrementExternalRetries(operation string) {
	externalRetriesTotal.WithLabelValues(operation).Inc()
}

func CaptureProcessingDuration(status string, elapsed time.Duration) {
	processingDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}
