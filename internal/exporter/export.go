package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dtindex/internal/dataprocessing"
)

// Exporter picks a writer by format and names the download
type Exporter struct {
	prefix string
	now    func() time.Time
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// New creates an exporter naming files prefix + timestamp
func New(prefix string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		prefix: prefix,
		now:    time.Now,
		csv:    NewCSVWriter(logger),
		xlsx:   NewXLSXWriter(logger),
		logger: logger,
	}
}

// FileName returns the download name for a format at the current time
func (e *Exporter) FileName(f Format) string {
	return FileName(e.prefix, f, e.now())
}

// Write encodes the table in the given format
func (e *Exporter) Write(out io.Writer, f Format, t *dataprocessing.Table) error {
	switch f {
	case FormatCSV:
		return e.csv.Write(out, t)
	case FormatXLSX:
		return e.xlsx.Write(out, t)
	default:
		return ErrUnsupportedFormat
	}
}

// WriteFile writes the table to path in the given format, creating parent
// directories. A failed write leaves no partial file behind.
func (e *Exporter) WriteFile(path string, f Format, t *dataprocessing.Table) error {
	e.logger.Info("Writing export file",
		slog.String("file_path", path),
		slog.String("format", string(f)),
		slog.Int("record_count", t.Len()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := e.Write(file, f, t); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}
