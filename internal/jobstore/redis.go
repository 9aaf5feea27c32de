package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

const jobKeyPrefix = "ocrjob:"

// RedisStore keeps job entries in Redis with a TTL so stale jobs age out on
// their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// OpenRedis dials Redis and verifies the connection before returning.
func OpenRedis(ctx context.Context, addr string, dialTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, common.External(err, "ping redis at "+addr)
	}
	return client, nil
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

func (s *RedisStore) Save(ctx context.Context, job *entity.OcrJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return common.WrapError(err, "marshal job "+job.JobID)
	}
	if err := s.client.Set(ctx, jobKey(job.JobID), data, s.ttl).Err(); err != nil {
		return common.External(err, "save job "+job.JobID)
	}
	s.logger.Debug("job saved", "job_id", job.JobID, "status", job.Status)
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*entity.OcrJob, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.WrapError(common.ErrNotFound, "job "+jobID)
	}
	if err != nil {
		return nil, common.External(err, "get job "+jobID)
	}
	var job entity.OcrJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, common.WrapError(err, "unmarshal job "+jobID)
	}
	return &job, nil
}

func (s *RedisStore) MarkStatus(ctx context.Context, jobID string, status constants.JobStatus) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	return s.Save(ctx, job)
}
