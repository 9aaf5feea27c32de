// replay re-processes one finished OCR job by hand, for recovering items
// whose queue message was lost or dead-lettered.
//
//	replay -job <jobId> -metadata-key metadata/uploads/<owner>/<unique>/<file>.json [-dry-run]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/alert"
	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/jobstore"
	"github.com/kolade-a/labreports-tracker/internal/keycodec"
	"github.com/kolade-a/labreports-tracker/internal/metadata"
	"github.com/kolade-a/labreports-tracker/internal/objectstore"
	"github.com/kolade-a/labreports-tracker/internal/ocrengine"
	"github.com/kolade-a/labreports-tracker/internal/pipeline"
	"github.com/kolade-a/labreports-tracker/internal/repository"
)

func main() {
	jobID := flag.String("job", "", "OCR job id to replay")
	metadataKey := flag.String("metadata-key", "", "metadata sidecar key of the upload")
	dryRun := flag.Bool("dry-run", false, "extract and print records without writing to the store")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *jobID == "" || *metadataKey == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -job <jobId> -metadata-key <key> [-dry-run]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	store := objectstore.NewS3Store(s3.NewFromConfig(awsCfg))
	engine := ocrengine.NewTextract(textract.NewFromConfig(awsCfg))

	gateway, err := metadata.NewGateway(store, cfg.AWS.UploadBucket, logger)
	if err != nil {
		logger.Error("failed to build metadata gateway", "error", err)
		os.Exit(1)
	}

	var repo repository.RecordRepository
	memory := repository.NewMemory()
	if *dryRun {
		repo = memory
	} else {
		repo = openRepo(ctx, cfg, awsCfg, logger)
	}

	processor := pipeline.NewProcessor(engine, store, gateway, jobstore.NewMemory(), repo, alert.Nop{}, pipeline.Config{
		ResultBucket:   cfg.AWS.ResultBucket,
		MatchThreshold: cfg.Pipeline.MatchThreshold,
	}, logger)

	err = processor.HandleCompletion(ctx, entity.CompletionNotification{
		JobID:       *jobID,
		Status:      constants.JobStatusSucceeded,
		MetadataKey: *metadataKey,
	})
	if err != nil {
		logger.Error("replay failed", "job_id", *jobID, "error", err)
		os.Exit(1)
	}

	if *dryRun {
		ownerID, err := ownerOf(*metadataKey)
		if err != nil {
			logger.Error("cannot derive owner", "error", err)
			os.Exit(1)
		}
		records, err := memory.ListByOwner(ctx, ownerID)
		if err != nil {
			logger.Error("list failed", "error", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				logger.Error("encode failed", "error", err)
				os.Exit(1)
			}
		}
		logger.Info("dry run complete", "records", len(records))
		return
	}
	logger.Info("replay complete", "job_id", *jobID)
}

func ownerOf(metadataKey string) (string, error) {
	docKey, err := keycodec.DocumentKeyFromMetadataKey(metadataKey)
	if err != nil {
		return "", err
	}
	return keycodec.Owner(docKey)
}

func openRepo(ctx context.Context, cfg *common.Config, awsCfg aws.Config, logger *slog.Logger) repository.RecordRepository {
	switch {
	case cfg.Store.DatabaseURL != "":
		db, _, err := repository.OpenPostgres(ctx, repository.SQLConfig{
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
		return repository.NewSQLRepository(db, repository.DialectPostgres, logger)
	case cfg.Store.SQLitePath != "":
		db, err := repository.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite", "error", err)
			os.Exit(1)
		}
		return repository.NewSQLRepository(db, repository.DialectSQLite, logger)
	default:
		return repository.NewDynamoRepository(dynamodb.NewFromConfig(awsCfg), cfg.Store.TableName, logger)
	}
}
