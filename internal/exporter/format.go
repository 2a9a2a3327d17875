package exporter

import (
	"fmt"
	"strings"
	"time"

	"dtindex/internal/dataprocessing"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds prefix + timestamp + extension, e.g. 股票数据_20240301_080000.csv
func FileName(prefix string, f Format, at time.Time) string {
	return prefix + at.Format(TimestampLayout) + "." + string(f)
}

// formatRecord renders a row as CSV fields: numbers without trailing zeros,
// nulls as empty fields
func formatRecord(row dataprocessing.Row) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}
