// Package dispatch reacts to metadata-sidecar uploads by starting one OCR
// analysis job per supported document.
package dispatch

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/jobstore"
	"github.com/kolade-a/labreports-tracker/internal/keycodec"
	"github.com/kolade-a/labreports-tracker/internal/metrics"
	"github.com/kolade-a/labreports-tracker/internal/ocrengine"
)

// Config carries the fixed dispatch targets.
type Config struct {
	UploadBucket string
	ResultBucket string
	TopicARN     string
	RoleARN      string
}

// Dispatcher turns one upload event into one running OCR job.
//
// Dispatch is not idempotent: redelivery of the same upload event starts a
// second job for the same document. Both jobs converge on the same stored
// records because result processing is keyed idempotently.
type Dispatcher struct {
	engine ocrengine.Engine
	jobs   jobstore.Store
	cfg    Config
	logger *slog.Logger
}

func NewDispatcher(engine ocrengine.Engine, jobs jobstore.Store, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{engine: engine, jobs: jobs, cfg: cfg, logger: logger}
}

// HandleUpload derives the document key from the sidecar key, rejects
// unsupported document types before any job is started, and submits the
// document for analysis with the result key prefix as output location.
func (d *Dispatcher) HandleUpload(ctx context.Context, event entity.UploadEvent) error {
	traceID := uuid.NewString()
	logger := d.logger.With("trace_id", traceID, "metadata_key", event.Key)

	docKey, err := keycodec.DocumentKeyFromMetadataKey(event.Key)
	if err != nil {
		metrics.IncrementItemsFailed("malformed_key")
		logger.Error("cannot derive document key", "error", err)
		return err
	}

	ext := path.Ext(docKey)
	if !constants.SupportedDocument(ext) {
		metrics.IncrementItemsFailed("unsupported_document")
		logger.Warn("skipping unsupported document", "document_key", docKey, "ext", ext)
		return common.WrapError(common.ErrUnsupportedDocument, "document "+docKey)
	}

	resultKey, err := keycodec.ResultKey(docKey)
	if err != nil {
		metrics.IncrementItemsFailed("malformed_key")
		return err
	}

	jobID, err := d.engine.StartAnalysis(ctx, ocrengine.StartInput{
		Bucket:       d.cfg.UploadBucket,
		DocumentKey:  docKey,
		OutputBucket: d.cfg.ResultBucket,
		OutputPrefix: resultKey,
		TopicARN:     d.cfg.TopicARN,
		RoleARN:      d.cfg.RoleARN,
	})
	if err != nil {
		metrics.IncrementItemsFailed("start_analysis")
		logger.Error("failed to start analysis", "document_key", docKey, "error", err)
		return err
	}

	job := &entity.OcrJob{
		JobID:       jobID,
		DocumentKey: docKey,
		Status:      constants.JobStatusRunning,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := d.jobs.Save(ctx, job); err != nil {
		// Tracking is advisory: the job is already running and its
		// notification will still be processed.
		logger.Warn("failed to track job", "job_id", jobID, "error", err)
	}

	metrics.IncrementJobsStarted()
	logger.Info("analysis started", "job_id", jobID, "document_key", docKey)
	return nil
}
