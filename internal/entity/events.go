package entity

import (
	"time"

	"github.com/kolade-a/labreports-tracker/constants"
)

// UploadEvent is an object-created notification for a metadata sidecar,
// observed when a client finishes an upload.
type UploadEvent struct {
	Bucket string
	Key    string // metadata/uploads/{ownerId}/{uniqueId}/{filename}.json
}

// CompletionNotification is the asynchronous terminal message emitted by the
// OCR engine when an analysis job finishes.
type CompletionNotification struct {
	JobID       string              `json:"JobId"`
	Status      constants.JobStatus `json:"Status"`
	MetadataKey string              `json:"MetadataKey"`
}

// OcrJob is the pipeline's observed view of one analysis job. The engine owns
// the job; only its terminal notification is consumed here.
type OcrJob struct {
	JobID       string              `json:"job_id"`
	DocumentKey string              `json:"document_key"`
	Status      constants.JobStatus `json:"status"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// BlockTypeLine is the only block type the extractor consumes.
const BlockTypeLine = "LINE"

// OcrBlock is one unit of recognized text from the OCR engine.
type OcrBlock struct {
	BlockType string `json:"BlockType"`
	Text      string `json:"Text"`
}
