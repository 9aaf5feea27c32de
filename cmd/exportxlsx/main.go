// exportxlsx writes an XLSX workbook of one owner's stored clinical records.
//
//	exportxlsx -owner <ownerId> [-from 2024-01-01] [-to 2024-12-31] [-out records.xlsx]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/export"
	"github.com/kolade-a/labreports-tracker/internal/repository"
)

func main() {
	owner := flag.String("owner", "", "owner id to export")
	fromStr := flag.String("from", "", "window start, YYYY-MM-DD")
	toStr := flag.String("to", "", "window end, YYYY-MM-DD")
	out := flag.String("out", "records.xlsx", "output file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "usage: exportxlsx -owner <ownerId> [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-out file]")
		os.Exit(2)
	}

	from, err := parseDateFlag(*fromStr)
	if err != nil {
		logger.Error("invalid -from", "error", err)
		os.Exit(2)
	}
	to, err := parseDateFlag(*toStr)
	if err != nil {
		logger.Error("invalid -to", "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ctx := context.Background()

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
		repo = repository.NewSQLRepository(db, repository.DialectPostgres, logger)
	case cfg.Store.SQLitePath != "":
		db, err := repository.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = repository.NewSQLRepository(db, repository.DialectSQLite, logger)
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		repo = repository.NewDynamoRepository(dynamodb.NewFromConfig(awsCfg), cfg.Store.TableName, logger)
	}

	svc := export.NewService(repo, logger)
	data, err := svc.ExportRecordsXLSX(ctx, *owner, from, to)
	if err != nil {
		logger.Error("export failed", "owner_id", *owner, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("workbook written", "path", *out, "bytes", len(data))
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
