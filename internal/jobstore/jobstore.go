// Package jobstore tracks the lifecycle of dispatched OCR jobs so operators
// can answer "what happened to this upload" while the engine works.
package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// Store is the job-tracking port. Entries are advisory: losing one never
// blocks result processing, it only degrades observability.
type Store interface {
	Save(ctx context.Context, job *entity.OcrJob) error
	Get(ctx context.Context, jobID string) (*entity.OcrJob, error)
	MarkStatus(ctx context.Context, jobID string, status constants.JobStatus) error
}

// Memory is an in-process Store for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]entity.OcrJob
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]entity.OcrJob)}
}

func (m *Memory) Save(_ context.Context, job *entity.OcrJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.JobID] = *job
	return nil
}

func (m *Memory) Get(_ context.Context, jobID string) (*entity.OcrJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "job "+jobID)
	}
	return &job, nil
}

func (m *Memory) MarkStatus(_ context.Context, jobID string, status constants.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return common.WrapError(common.ErrNotFound, "job "+jobID)
	}
	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	m.jobs[jobID] = job
	return nil
}
