// Package pipeline correlates OCR completion notifications with their uploads
// and turns finished jobs into stored clinical records.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/alert"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/extract"
	"github.com/kolade-a/labreports-tracker/internal/jobstore"
	"github.com/kolade-a/labreports-tracker/internal/keycodec"
	"github.com/kolade-a/labreports-tracker/internal/metadata"
	"github.com/kolade-a/labreports-tracker/internal/metrics"
	"github.com/kolade-a/labreports-tracker/internal/objectstore"
	"github.com/kolade-a/labreports-tracker/internal/ocrengine"
	"github.com/kolade-a/labreports-tracker/internal/record"
	"github.com/kolade-a/labreports-tracker/internal/repository"
)

// Config carries the processing targets and tunables.
type Config struct {
	ResultBucket   string
	MatchThreshold int
	Retry          common.RetryPolicy
}

// Processor handles one completion notification end to end: correlate the job
// back to its upload, fetch blocks, extract fields, match indicators and
// upsert records. Processing the same notification twice converges on the
// same rows.
type Processor struct {
	engine   ocrengine.Engine
	store    objectstore.Store
	gateway  *metadata.Gateway
	jobs     jobstore.Store
	repo     repository.RecordRepository
	notifier alert.Notifier
	cfg      Config
	logger   *slog.Logger
}

func NewProcessor(
	engine ocrengine.Engine,
	store objectstore.Store,
	gateway *metadata.Gateway,
	jobs jobstore.Store,
	repo repository.RecordRepository,
	notifier alert.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = alert.Nop{}
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = extract.DefaultThreshold
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = common.DefaultRetryPolicy()
	}
	return &Processor{
		engine:   engine,
		store:    store,
		gateway:  gateway,
		jobs:     jobs,
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// HandleCompletion processes one terminal OCR notification.
func (p *Processor) HandleCompletion(ctx context.Context, n entity.CompletionNotification) (err error) {
	start := time.Now()
	defer func() {
		status := string(constants.ProcessingCompleted)
		if err != nil {
			status = string(constants.ProcessingFailed)
		}
		metrics.CaptureProcessingDuration(status, time.Since(start))
	}()

	logger := p.logger.With("job_id", n.JobID, "metadata_key", n.MetadataKey)
	logger.Info("processing completion notification", "status", n.Status)

	docKey, err := keycodec.DocumentKeyFromMetadataKey(n.MetadataKey)
	if err != nil {
		metrics.IncrementItemsFailed("malformed_key")
		return err
	}

	if n.Status != constants.JobStatusSucceeded {
		p.markJob(ctx, logger, n.JobID, constants.JobStatusFailed)
		metrics.IncrementItemsFailed("job_failed")
		return fmt.Errorf("job %s for %s reported %s: %w", n.JobID, docKey, n.Status, common.ErrOCRJobFailed)
	}

	ownerID, _, _, err := keycodec.ParseDocumentKey(docKey)
	if err != nil {
		metrics.IncrementItemsFailed("malformed_key")
		return err
	}
	resultKey, err := keycodec.ResultKey(docKey)
	if err != nil {
		metrics.IncrementItemsFailed("malformed_key")
		return err
	}
	// The codec must invert cleanly or the result would be archived against
	// the wrong document.
	roundTrip, err := keycodec.DocumentKeyFromResultKey(resultKey, path.Ext(docKey))
	if err != nil {
		metrics.IncrementItemsFailed("malformed_key")
		return err
	}
	if roundTrip != docKey {
		metrics.IncrementItemsFailed("malformed_key")
		return fmt.Errorf("result key %q resolves to %q, not %q: %w", resultKey, roundTrip, docKey, common.ErrMalformedKey)
	}

	var blocks []entity.OcrBlock
	err = common.Retry(ctx, p.cfg.Retry, logger, "get_blocks", func(ctx context.Context) error {
		metrics.IncrementExternalRetries("get_blocks")
		var err error
		blocks, err = p.engine.GetBlocks(ctx, n.JobID)
		return err
	})
	if err != nil {
		metrics.IncrementItemsFailed("get_blocks")
		return err
	}

	p.archiveBlocks(ctx, logger, resultKey, blocks)
	p.markJob(ctx, logger, n.JobID, constants.JobStatusSucceeded)

	meta, err := p.gateway.Fetch(ctx, n.MetadataKey)
	if err != nil {
		if errors.Is(err, common.ErrMetadataMissing) {
			metrics.IncrementItemsFailed("metadata_missing")
			p.notifyAsync("Metadata sidecar missing",
				fmt.Sprintf("job %s finished but sidecar %s is missing", n.JobID, n.MetadataKey))
		} else {
			metrics.IncrementItemsFailed("metadata_invalid")
		}
		return err
	}

	fields, cands := extract.Parse(blocks)
	logger.Info("document parsed",
		"owner_id", ownerID,
		"candidates", len(cands),
		"requested_indicators", len(meta.RequestedIndicators()))

	var firstErr error
	for _, indicator := range meta.RequestedIndicators() {
		cand, score, err := extract.MatchIndicator(indicator, cands, p.cfg.MatchThreshold)
		if err != nil {
			metrics.IncrementIndicatorMisses()
			logger.Warn("no indicator match", "indicator", indicator, "error", err)
			continue
		}

		rec := record.Build(record.BuildInput{
			OwnerID:     ownerID,
			DocumentKey: docKey,
			Meta:        meta,
			Fields:      fields,
			Candidate:   cand,
		})
		err = common.Retry(ctx, p.cfg.Retry, logger, "upsert_record", func(ctx context.Context) error {
			return p.repo.Upsert(ctx, rec)
		})
		if err != nil {
			metrics.IncrementItemsFailed("upsert")
			logger.Error("failed to store record", "composite_key", rec.CompositeKey, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		metrics.IncrementRecordsStored()
		logger.Info("record stored",
			"indicator", rec.IndicatorName,
			"composite_key", rec.CompositeKey,
			"match_score", score)
	}
	return firstErr
}

// archiveBlocks writes the canonical block JSON to the result key. Archival is
// advisory; a failed write never blocks record extraction.
func (p *Processor) archiveBlocks(ctx context.Context, logger *slog.Logger, resultKey string, blocks []entity.OcrBlock) {
	data, err := json.Marshal(blocks)
	if err != nil {
		logger.Warn("failed to marshal blocks for archival", "error", err)
		return
	}
	if err := p.store.Put(ctx, p.cfg.ResultBucket, resultKey, data, "application/json"); err != nil {
		logger.Warn("failed to archive raw result", "result_key", resultKey, "error", err)
	}
}

func (p *Processor) markJob(ctx context.Context, logger *slog.Logger, jobID string, status constants.JobStatus) {
	if err := p.jobs.MarkStatus(ctx, jobID, status); err != nil && !errors.Is(err, common.ErrNotFound) {
		logger.Warn("failed to mark job status", "job_id", jobID, "status", status, "error", err)
	}
}

func (p *Processor) notifyAsync(subject, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.notifier.Notify(ctx, subject, message); err != nil {
			p.logger.Warn("failed to send alert", "subject", subject, "error", err)
		}
	}()
}
