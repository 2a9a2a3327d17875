package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"dtindex/internal/dataprocessing"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported export format")

// TimestampLayout is the time layout used in export file names
const TimestampLayout = "20060102_150405"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes tables as CSV
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM so Excel detects the encoding
	BOMPrefix bool
	logger    *slog.Logger
}

// NewCSVWriter creates a CSV writer that prefixes output with a BOM
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{BOMPrefix: true, logger: logger}
}

// Write encodes the table, header first
func (w *CSVWriter) Write(out io.Writer, t *dataprocessing.Table) error {
	if w.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range t.Rows() {
		if err := writer.Write(formatRecord(row)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
