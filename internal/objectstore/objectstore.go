// Package objectstore abstracts the blob storage holding uploaded documents,
// metadata sidecars and archived OCR output.
package objectstore

import (
	"context"
	"sync"

	"github.com/kolade-a/labreports-tracker/internal/common"
)

// Store is the object-store port. Implementations map a missing object to
// common.ErrNotFound so callers can tell absence from outage.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// Memory is an in-process Store for tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "object "+bucket+"/"+key)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

func (m *Memory) Put(_ context.Context, bucket, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(body))
	copy(cp, body)
	m.objects[bucket+"/"+key] = cp
	return nil
}
