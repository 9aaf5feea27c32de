package constants

// JobStatus is the canonical status of an OCR analysis job as observed
// through its completion notification.
type JobStatus string

// Stable values (store these exact strings).
const (
	JobStatusRunning   JobStatus = "RUNNING"   // job started, no terminal notification yet
	JobStatusSucceeded JobStatus = "SUCCEEDED" // terminal, results retrievable
	JobStatusFailed    JobStatus = "FAILED"    // terminal, never retried by this pipeline
)

// Terminal reports whether a status will never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// ProcessingState marks the per-item lifecycle of one completion
// notification as it moves through the pipeline.
type ProcessingState string

const (
	ProcessingStarted   ProcessingState = "PROCESSING_STARTED"
	ProcessingFailed    ProcessingState = "PROCESSING_FAILED"
	ProcessingCompleted ProcessingState = "PROCESSING_COMPLETED"
)
