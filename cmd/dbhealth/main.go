// dbhealth verifies that the configured SQL store is reachable and exits
// non-zero otherwise. Intended for container health checks and deploy gates.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	ctx := context.Background()

	switch {
	case cfg.Store.DatabaseURL != "":
		db, pool, err := repository.OpenPostgres(ctx, repository.SQLConfig{
			DSN:             cfg.Store.DatabaseURL,
			MaxConns:        1,
			MinConns:        1,
			DialTimeout:     cfg.Store.DialTimeout,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
			MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
		}, logger)
		if err != nil {
			logger.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := repository.HealthCheck(ctx, db, cfg.Store.DialTimeout); err != nil {
			logger.Error("postgres health check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("postgres health OK")
	case cfg.Store.SQLitePath != "":
		db, err := repository.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			logger.Error("sqlite unreachable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := repository.HealthCheck(ctx, db, cfg.Store.DialTimeout); err != nil {
			logger.Error("sqlite health check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sqlite health OK")
	default:
		logger.Error("no SQL store configured; set DB_URL or SQLITE_PATH")
		os.Exit(2)
	}
}
