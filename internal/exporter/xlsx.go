package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"dtindex/internal/dataprocessing"
)

// DefaultSheetName is the worksheet XLSX exports are written to
const DefaultSheetName = "data"

// XLSXWriter writes tables as a single-sheet workbook
type XLSXWriter struct {
	Sheet  string
	logger *slog.Logger
}

// NewXLSXWriter creates an XLSX writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{Sheet: DefaultSheetName, logger: logger}
}

// Write encodes the table as a workbook. Numbers stay numeric cells and
// nulls are left blank.
func (w *XLSXWriter) Write(out io.Writer, t *dataprocessing.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := w.Sheet
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, len(t.Columns()))
	for i, c := range t.Columns() {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for r, row := range t.Rows() {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v.Interface()
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write record %d: %w", r, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	w.logger.Debug("Workbook encoded", slog.Int("record_count", t.Len()))
	return f.Write(out)
}
