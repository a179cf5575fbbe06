// Package export renders extraction-run manifests as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/veridian-labs/docsift/internal/repository"
)

// Service is a tiny façade over the runs store output that produces XLSX
// bytes for operator audits.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RunXLSX returns a workbook with one summary sheet for the run and one
// sheet listing its failure entries.
func (s *Service) RunXLSX(rec repository.RunRecord, failures []repository.RunFailure) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const summary = "Run"
	const detail = "Failures"

	idx, err := f.NewSheet(summary)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// excelize starts with a default sheet we don't use
	_ = f.DeleteSheet("Sheet1")

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	summaryRows := []struct {
		label string
		value any
	}{
		{"Run ID", rec.ID.String()},
		{"Document", rec.DocumentID},
		{"Status", string(rec.Status)},
		{"Pages", rec.Pages},
		{"Images analyzed", rec.Images},
		{"Failure entries", rec.Failures},
		{"Full-text bytes", rec.TextBytes},
		{"Duration (ms)", rec.DurationMS},
		{"Started", rec.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	for i, r := range summaryRows {
		write(summary, 1, i+1, r.label)
		write(summary, 2, i+1, r.value)
	}
	_ = f.SetColWidth(summary, "A", "A", 18)
	_ = f.SetColWidth(summary, "B", "B", 44)

	if _, err := f.NewSheet(detail); err != nil {
		return nil, err
	}
	headers := []string{"Page", "Image", "Kind", "Message"}
	for i, h := range headers {
		write(detail, i+1, 1, h)
	}
	for i, fl := range failures {
		row := i + 2
		write(detail, 1, row, fl.PageIndex)
		if fl.ImageIndex > 0 {
			write(detail, 2, row, fl.ImageIndex)
		}
		write(detail, 3, row, fl.Kind)
		write(detail, 4, row, fl.Message)
	}
	_ = f.SetColWidth(detail, "A", "B", 8)
	_ = f.SetColWidth(detail, "C", "C", 22)
	_ = f.SetColWidth(detail, "D", "D", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", rec.ID.String(),
		"failure_rows", len(failures),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
