// Package ocrengine abstracts the external managed OCR service. The engine
// owns job lifecycle and internal retries; the pipeline only starts jobs and
// consumes terminal results.
package ocrengine

import (
	"context"

	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// StartInput describes one analysis job.
type StartInput struct {
	Bucket       string // bucket holding the document
	DocumentKey  string
	OutputBucket string // where the engine writes raw output
	OutputPrefix string
	TopicARN     string // completion notification target
	RoleARN      string // role the engine assumes to publish
}

// Engine is the OCR-engine port.
type Engine interface {
	// StartAnalysis starts an asynchronous analysis job and returns its id.
	StartAnalysis(ctx context.Context, in StartInput) (string, error)
	// GetBlocks fetches the full block set of a finished job, following
	// continuation tokens until exhausted.
	GetBlocks(ctx context.Context, jobID string) ([]entity.OcrBlock, error)
}
