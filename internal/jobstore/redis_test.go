package jobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour, nil)
}

func TestRedisStore_Lifecycle(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	job := &entity.OcrJob{
		JobID:       "job-abc-123",
		DocumentKey: "uploads/owner-1/id1/report_1.jpg",
		Status:      constants.JobStatusRunning,
		UpdatedAt:   time.Now().UTC(),
	}

	t.Run("save and get roundtrip", func(t *testing.T) {
		if err := store.Save(ctx, job); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Get(ctx, job.JobID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.DocumentKey != job.DocumentKey || got.Status != constants.JobStatusRunning {
			t.Errorf("got %+v, want %+v", got, job)
		}
	})

	t.Run("get missing job", func(t *testing.T) {
		_, err := store.Get(ctx, "ghost-id")
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("mark status", func(t *testing.T) {
		if err := store.MarkStatus(ctx, job.JobID, constants.JobStatusSucceeded); err != nil {
			t.Fatalf("MarkStatus failed: %v", err)
		}
		got, err := store.Get(ctx, job.JobID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Status != constants.JobStatusSucceeded {
			t.Errorf("Status = %v, want %v", got.Status, constants.JobStatusSucceeded)
		}
	})

	t.Run("mark status on missing job", func(t *testing.T) {
		err := store.MarkStatus(ctx, "ghost-id", constants.JobStatusFailed)
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestMemory_Lifecycle(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	job := &entity.OcrJob{JobID: "job-1", Status: constants.JobStatusRunning}
	if err := store.Save(ctx, job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.MarkStatus(ctx, "job-1", constants.JobStatusFailed); err != nil {
		t.Fatalf("MarkStatus failed: %v", err)
	}
	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != constants.JobStatusFailed {
		t.Errorf("Status = %v, want %v", got.Status, constants.JobStatusFailed)
	}
}
