package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"

	apperrors "dtindex/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads a UTF-8 CSV file with an optional byte order mark
type CSVSource struct {
	Path   string
	Logger *slog.Logger
}

// Name implements Source
func (s *CSVSource) Name() string { return s.Path }

// Load implements Source
func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperrors.NewSourceError("failed to open csv", err).WithContext("file", s.Path)
	}

	table, err := ReadCSV(bytes.NewReader(content))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse csv", err).WithContext("file", s.Path)
	}

	logger(s.Logger).DebugContext(ctx, "csv parsed",
		slog.String("file", s.Path),
		slog.Int("rows", table.Len()))
	return table, nil
}

// ReadCSV parses CSV content into a Table, dropping a leading BOM
func ReadCSV(r io.Reader) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	raw, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return buildTable(raw)
}
