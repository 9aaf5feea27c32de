// Package repository persists clinical records behind a key-value contract:
// point get, range query by owner, conditional field update and upsert put,
// keyed by (ownerId, compositeKey).
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// MutableFields are the attributes a conditional update may touch. Keys and
// provenance are immutable once written.
var MutableFields = map[string]struct{}{
	"PatientName":    {},
	"CollectedDate":  {},
	"LaboratoryName": {},
	"Result":         {},
	"Units":          {},
	"LowerRange":     {},
	"UpperRange":     {},
}

// RecordRepository is the structured-store port.
type RecordRepository interface {
	// Upsert writes unconditionally: reprocessing the same notification must
	// overwrite the same row, never duplicate it.
	Upsert(ctx context.Context, rec *entity.ClinicalRecord) error
	Get(ctx context.Context, ownerID, compositeKey string) (*entity.ClinicalRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.ClinicalRecord, error)
	// UpdateFields applies a partial update to an existing record; it fails
	// with ErrNotFound if the record does not exist and ErrInvalidInput for
	// non-mutable fields.
	UpdateFields(ctx context.Context, ownerID, compositeKey string, updates map[string]any) error
	Delete(ctx context.Context, ownerID, compositeKey string) error
}

func validateUpdates(updates map[string]any) error {
	if len(updates) == 0 {
		return common.WrapError(common.ErrInvalidInput, "no fields to update")
	}
	for field := range updates {
		if _, ok := MutableFields[field]; !ok {
			return common.WrapError(common.ErrInvalidInput, "field "+field+" is not updatable")
		}
	}
	return nil
}

// Memory is an in-process RecordRepository for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]entity.ClinicalRecord
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]entity.ClinicalRecord)}
}

func memKey(ownerID, compositeKey string) string {
	return ownerID + "|" + compositeKey
}

func (m *Memory) Upsert(_ context.Context, rec *entity.ClinicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[memKey(rec.OwnerID, rec.CompositeKey)] = *rec
	return nil
}

func (m *Memory) Get(_ context.Context, ownerID, compositeKey string) (*entity.ClinicalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.rows[memKey(ownerID, compositeKey)]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "record "+compositeKey)
	}
	return &rec, nil
}

func (m *Memory) ListByOwner(_ context.Context, ownerID string) ([]*entity.ClinicalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.ClinicalRecord
	for _, rec := range m.rows {
		if rec.OwnerID == ownerID {
			r := rec
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompositeKey < out[j].CompositeKey })
	return out, nil
}

func (m *Memory) UpdateFields(_ context.Context, ownerID, compositeKey string, updates map[string]any) error {
	if err := validateUpdates(updates); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[memKey(ownerID, compositeKey)]
	if !ok {
		return common.WrapError(common.ErrNotFound, "record "+compositeKey)
	}
	for field, value := range updates {
		switch field {
		case "PatientName":
			rec.PatientName, _ = value.(string)
		case "CollectedDate":
			rec.CollectedDate, _ = value.(string)
		case "LaboratoryName":
			rec.LaboratoryName, _ = value.(string)
		case "Units":
			rec.Units, _ = value.(string)
		case "Result":
			rec.Result = toFloat(value)
		case "LowerRange":
			rec.LowerRange = toFloat(value)
		case "UpperRange":
			rec.UpperRange = toFloat(value)
		}
	}
	m.rows[memKey(ownerID, compositeKey)] = rec
	return nil
}

func (m *Memory) Delete(_ context.Context, ownerID, compositeKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, memKey(ownerID, compositeKey))
	return nil
}

// Len reports the stored row count; used by tests and dry runs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}
