package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// SQLConfig holds connection settings for the Postgres deployment.
type SQLConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OpenPostgres creates a pgx pool and wraps it as *sql.DB.
func OpenPostgres(ctx context.Context, cfg SQLConfig, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "labreports-tracker"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return db, pool, nil
}

// OpenSQLite opens a local sqlite database for single-node deployments.
func OpenSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// Dialects accepted by NewSQLRepository.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// columnOf maps mutable record fields to their SQL columns.
var columnOf = map[string]string{
	"PatientName":    "patient_name",
	"CollectedDate":  "collected_date",
	"LaboratoryName": "laboratory_name",
	"Result":         "result",
	"Units":          "units",
	"LowerRange":     "lower_range",
	"UpperRange":     "upper_range",
}

// SQLRepository implements RecordRepository on a relational table with the
// same (owner_id, composite_key) primary key as the DynamoDB layout.
type SQLRepository struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

func NewSQLRepository(db *sql.DB, dialect string, logger *slog.Logger) *SQLRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLRepository{db: db, dialect: dialect, logger: logger}
}

// Migrate creates the records table if it does not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS clinical_records (
	owner_id        TEXT NOT NULL,
	composite_key   TEXT NOT NULL,
	patient_id      TEXT NOT NULL,
	patient_name    TEXT NOT NULL DEFAULT '',
	collected_date  TEXT NOT NULL DEFAULT '',
	upload_date     TEXT NOT NULL DEFAULT '',
	laboratory_name TEXT NOT NULL DEFAULT '',
	indicator       TEXT NOT NULL,
	result          DOUBLE PRECISION NOT NULL DEFAULT 0,
	units           TEXT NOT NULL DEFAULT '',
	lower_range     DOUBLE PRECISION NOT NULL DEFAULT 0,
	upper_range     DOUBLE PRECISION NOT NULL DEFAULT 0,
	source_key      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (owner_id, composite_key)
)`)
	if err != nil {
		return common.External(err, "migrate clinical_records")
	}
	return nil
}

// ph renders the n-th placeholder (1-based) for the active dialect.
func (r *SQLRepository) ph(n int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *SQLRepository) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = r.ph(i + 1)
	}
	return strings.Join(parts, ", ")
}

func (r *SQLRepository) Upsert(ctx context.Context, rec *entity.ClinicalRecord) error {
	query := `
INSERT INTO clinical_records (
	owner_id, composite_key, patient_id, patient_name, collected_date,
	upload_date, laboratory_name, indicator, result, units,
	lower_range, upper_range, source_key
) VALUES (` + r.placeholders(13) + `)
ON CONFLICT (owner_id, composite_key) DO UPDATE SET
	patient_id      = excluded.patient_id,
	patient_name    = excluded.patient_name,
	collected_date  = excluded.collected_date,
	upload_date     = excluded.upload_date,
	laboratory_name = excluded.laboratory_name,
	indicator       = excluded.indicator,
	result          = excluded.result,
	units           = excluded.units,
	lower_range     = excluded.lower_range,
	upper_range     = excluded.upper_range,
	source_key      = excluded.source_key`

	_, err := r.db.ExecContext(ctx, query,
		rec.OwnerID, rec.CompositeKey, rec.PatientID, rec.PatientName, rec.CollectedDate,
		rec.UploadDate, rec.LaboratoryName, rec.IndicatorName, rec.Result, rec.Units,
		rec.LowerRange, rec.UpperRange, rec.SourceDocumentKey,
	)
	if err != nil {
		return common.External(err, "upsert record "+rec.CompositeKey)
	}
	r.logger.Debug("record upserted", "owner_id", rec.OwnerID, "composite_key", rec.CompositeKey)
	return nil
}

const selectColumns = `
	owner_id, composite_key, patient_id, patient_name, collected_date,
	upload_date, laboratory_name, indicator, result, units,
	lower_range, upper_range, source_key`

func scanRecord(row interface{ Scan(...any) error }) (*entity.ClinicalRecord, error) {
	var rec entity.ClinicalRecord
	err := row.Scan(
		&rec.OwnerID, &rec.CompositeKey, &rec.PatientID, &rec.PatientName, &rec.CollectedDate,
		&rec.UploadDate, &rec.LaboratoryName, &rec.IndicatorName, &rec.Result, &rec.Units,
		&rec.LowerRange, &rec.UpperRange, &rec.SourceDocumentKey,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLRepository) Get(ctx context.Context, ownerID, compositeKey string) (*entity.ClinicalRecord, error) {
	query := `SELECT` + selectColumns + `
FROM clinical_records WHERE owner_id = ` + r.ph(1) + ` AND composite_key = ` + r.ph(2)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, ownerID, compositeKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.WrapError(common.ErrNotFound, "record "+compositeKey)
	}
	if err != nil {
		return nil, common.External(err, "get record "+compositeKey)
	}
	return rec, nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ClinicalRecord, error) {
	query := `SELECT` + selectColumns + `
FROM clinical_records WHERE owner_id = ` + r.ph(1) + ` ORDER BY composite_key`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, common.External(err, "list records for "+ownerID)
	}
	defer rows.Close()

	var records []*entity.ClinicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, common.External(err, "scan record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.External(err, "list records for "+ownerID)
	}
	return records, nil
}

func (r *SQLRepository) UpdateFields(ctx context.Context, ownerID, compositeKey string, updates map[string]any) error {
	if err := validateUpdates(updates); err != nil {
		return err
	}

	var sets []string
	var args []any
	i := 1
	for field, value := range updates {
		sets = append(sets, columnOf[field]+" = "+r.ph(i))
		args = append(args, value)
		i++
	}
	query := "UPDATE clinical_records SET " + strings.Join(sets, ", ") +
		" WHERE owner_id = " + r.ph(i) + " AND composite_key = " + r.ph(i+1)
	args = append(args, ownerID, compositeKey)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return common.External(err, "update record "+compositeKey)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.External(err, "update record "+compositeKey)
	}
	if affected == 0 {
		return common.WrapError(common.ErrNotFound, "record "+compositeKey)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, ownerID, compositeKey string) error {
	query := "DELETE FROM clinical_records WHERE owner_id = " + r.ph(1) + " AND composite_key = " + r.ph(2)
	if _, err := r.db.ExecContext(ctx, query, ownerID, compositeKey); err != nil {
		return common.External(err, "delete record "+compositeKey)
	}
	return nil
}
