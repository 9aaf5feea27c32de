// labreportsd is the extraction service: it consumes upload events and OCR
// completion notifications from the queue, dispatches analysis jobs and turns
// finished jobs into stored clinical records.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/kolade-a/labreports-tracker/internal/alert"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/dispatch"
	"github.com/kolade-a/labreports-tracker/internal/jobstore"
	"github.com/kolade-a/labreports-tracker/internal/metadata"
	"github.com/kolade-a/labreports-tracker/internal/objectstore"
	"github.com/kolade-a/labreports-tracker/internal/ocrengine"
	"github.com/kolade-a/labreports-tracker/internal/ops"
	"github.com/kolade-a/labreports-tracker/internal/pipeline"
	"github.com/kolade-a/labreports-tracker/internal/queue"
	"github.com/kolade-a/labreports-tracker/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	store := objectstore.NewS3Store(s3.NewFromConfig(awsCfg))
	engine := ocrengine.NewTextract(textract.NewFromConfig(awsCfg))

	var notifier alert.Notifier = alert.Nop{}
	if cfg.AWS.SNSTopicARN != "" {
		notifier = alert.NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.AWS.SNSTopicARN)
	}

	checks := map[string]ops.HealthCheck{}

	var repo repository.RecordRepository
	switch {
	case cfg.Store.DatabaseURL != "":
		db, pool, err := repository.OpenPostgres(ctx, repository.SQLConfig{
			DSN:             cfg.Store.DatabaseURL,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
			MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
			DialTimeout:     cfg.Store.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		sqlRepo := repository.NewSQLRepository(db, repository.DialectPostgres, logger)
		if err := sqlRepo.Migrate(ctx); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		checks["postgres"] = func(ctx context.Context) error {
			return repository.HealthCheck(ctx, db, cfg.Store.DialTimeout)
		}
		repo = sqlRepo
	case cfg.Store.SQLitePath != "":
		db, err := repository.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		sqlRepo := repository.NewSQLRepository(db, repository.DialectSQLite, logger)
		if err := sqlRepo.Migrate(ctx); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		repo = sqlRepo
	default:
		repo = repository.NewDynamoRepository(dynamodb.NewFromConfig(awsCfg), cfg.Store.TableName, logger)
	}

	var jobs jobstore.Store = jobstore.NewMemory()
	if cfg.Store.RedisAddr != "" {
		client, err := jobstore.OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.DialTimeout)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		jobs = jobstore.NewRedisStore(client, cfg.Store.JobTTL, logger)
	}

	gateway, err := metadata.NewGateway(store, cfg.AWS.UploadBucket, logger)
	if err != nil {
		logger.Error("failed to build metadata gateway", "error", err)
		os.Exit(1)
	}

	dispatcher := dispatch.NewDispatcher(engine, jobs, dispatch.Config{
		UploadBucket: cfg.AWS.UploadBucket,
		ResultBucket: cfg.AWS.ResultBucket,
		TopicARN:     cfg.AWS.SNSTopicARN,
		RoleARN:      cfg.AWS.TextractRoleARN,
	}, logger)

	processor := pipeline.NewProcessor(engine, store, gateway, jobs, repo, notifier, pipeline.Config{
		ResultBucket:   cfg.AWS.ResultBucket,
		MatchThreshold: cfg.Pipeline.MatchThreshold,
		Retry: common.RetryPolicy{
			MaxAttempts: cfg.Pipeline.RetryAttempts,
			BaseDelay:   cfg.Pipeline.RetryBaseDelay,
			MaxDelay:    cfg.Pipeline.RetryMaxDelay,
		},
	}, logger)

	consumer := queue.NewConsumer(sqs.NewFromConfig(awsCfg), cfg.AWS.QueueURL, dispatcher, processor, logger)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped unexpectedly", "error", err)
			stop()
		}
	}()

	opsServer := ops.NewServer(cfg.Ops.Addr, checks, cfg.Ops.ShutdownTimeout, logger)
	if err := opsServer.Run(ctx); err != nil {
		logger.Error("ops server failed", "error", err)
	}

	<-consumerDone
	logger.Info("labreportsd stopped")
}
