// Package export produces XLSX workbooks of stored clinical records.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/repository"
)

// Service is a tiny façade over the record repository that produces XLSX
// bytes for exports.
type Service struct {
	repo   repository.RecordRepository
	logger *slog.Logger
}

func NewService(repo repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportRecordsXLSX returns an XLSX workbook (as bytes) for the given owner
// and upload-date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all records for the owner.
func (s *Service) ExportRecordsXLSX(ctx context.Context, ownerID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	recs = filterByUploadDate(recs, fromDate, toDate)

	f := excelize.NewFile()
	const sheet = "Records"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Upload Date",
		"Patient Name",
		"Collected Date",
		"Laboratory",
		"Indicator",
		"Result",
		"Units",
		"Lower Range",
		"Upper Range",
		"Document Key",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.UploadDate)
		write(2, r.PatientName)
		write(3, r.CollectedDate)
		write(4, r.LaboratoryName)
		write(5, r.IndicatorName)
		write(6, r.Result)
		write(7, r.Units)
		write(8, r.LowerRange)
		write(9, r.UpperRange)
		write(10, r.SourceDocumentKey)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 22) // upload date
	_ = f.SetColWidth(sheet, "B", "B", 24) // patient
	_ = f.SetColWidth(sheet, "C", "C", 14) // collected
	_ = f.SetColWidth(sheet, "D", "D", 24) // laboratory
	_ = f.SetColWidth(sheet, "E", "E", 20) // indicator
	_ = f.SetColWidth(sheet, "F", "I", 12) // numbers
	_ = f.SetColWidth(sheet, "J", "J", 60) // document key

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner_id", ownerID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// filterByUploadDate keeps records whose upload date parses and falls inside
// the window. Upload dates that fail to parse are kept; a lenient export beats
// silently losing rows over one bad timestamp.
func filterByUploadDate(recs []*entity.ClinicalRecord, from, to *time.Time) []*entity.ClinicalRecord {
	if from == nil && to == nil {
		return recs
	}
	var out []*entity.ClinicalRecord
	for _, r := range recs {
		t, err := parseUploadDate(r.UploadDate)
		if err != nil {
			out = append(out, r)
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseUploadDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable upload date %q", value)
}
