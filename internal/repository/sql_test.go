package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

func newTestSQLRepo(t *testing.T) *SQLRepository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewSQLRepository(db, DialectSQLite, nil)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func testRecord() *entity.ClinicalRecord {
	return &entity.ClinicalRecord{
		OwnerID:           "owner-1",
		CompositeKey:      "abc123#2024-01-02T10:00:00Z#Glucose",
		PatientID:         "abc123",
		PatientName:       "Jane Doe",
		CollectedDate:     "2024-01-01",
		UploadDate:        "2024-01-02T10:00:00Z",
		LaboratoryName:    "Acme Labs",
		IndicatorName:     "Glucose",
		Result:            95,
		Units:             "mg/dL",
		LowerRange:        70,
		UpperRange:        110,
		SourceDocumentKey: "uploads/owner-1/id1/report_1.jpg",
	}
}

func TestSQLRepository_UpsertIsIdempotent(t *testing.T) {
	repo := newTestSQLRepo(t)
	ctx := context.Background()

	rec := testRecord()
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.Result = 97
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := repo.ListByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("row count after double upsert = %d, want 1", len(records))
	}
	if records[0].Result != 97 {
		t.Errorf("Result = %v, want 97", records[0].Result)
	}
}

func TestSQLRepository_Get(t *testing.T) {
	repo := newTestSQLRepo(t)
	ctx := context.Background()

	rec := testRecord()
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.Get(ctx, rec.OwnerID, rec.CompositeKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != *rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}

	_, err = repo.Get(ctx, rec.OwnerID, "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}
}

func TestSQLRepository_ListByOwner(t *testing.T) {
	repo := newTestSQLRepo(t)
	ctx := context.Background()

	a := testRecord()
	b := testRecord()
	b.CompositeKey = "abc123#2024-01-02T10:00:00Z#TSH"
	b.IndicatorName = "TSH"
	other := testRecord()
	other.OwnerID = "owner-2"

	for _, rec := range []*entity.ClinicalRecord{b, a, other} {
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	records, err := repo.ListByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].IndicatorName != "Glucose" || records[1].IndicatorName != "TSH" {
		t.Errorf("unexpected order: %q, %q", records[0].IndicatorName, records[1].IndicatorName)
	}
}

func TestSQLRepository_UpdateFields(t *testing.T) {
	repo := newTestSQLRepo(t)
	ctx := context.Background()

	rec := testRecord()
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	err := repo.UpdateFields(ctx, rec.OwnerID, rec.CompositeKey, map[string]any{
		"Result": 101.5,
		"Units":  "mmol/L",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, rec.OwnerID, rec.CompositeKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result != 101.5 || got.Units != "mmol/L" {
		t.Errorf("after update: Result=%v Units=%q", got.Result, got.Units)
	}

	err = repo.UpdateFields(ctx, rec.OwnerID, rec.CompositeKey, map[string]any{"CompositeKey": "x"})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("immutable field: err = %v, want ErrInvalidInput", err)
	}

	err = repo.UpdateFields(ctx, rec.OwnerID, "missing", map[string]any{"Result": 1.0})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing record: err = %v, want ErrNotFound", err)
	}
}

func TestSQLRepository_Delete(t *testing.T) {
	repo := newTestSQLRepo(t)
	ctx := context.Background()

	rec := testRecord()
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Delete(ctx, rec.OwnerID, rec.CompositeKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, rec.OwnerID, rec.CompositeKey); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
}
