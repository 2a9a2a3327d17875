package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "dtindex/internal/errors"
)

// nullTokens are the cell texts read as missing values. Matching is exact,
// so "NONE" or "-" stay text.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// ParseCell converts raw cell text into a Value
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if _, isNull := nullTokens[s]; isNull {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Null()
		}
		return Number(f)
	}
	return Text(s)
}

// TextCell converts a cell the source stores as a string. Missing-value
// tokens still become Null, everything else stays Text even when it looks
// like a number, so a code such as 000002 keeps its zeros.
func TextCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if _, isNull := nullTokens[s]; isNull {
		return Null()
	}
	return Text(s)
}

// cellParser converts the cell at raw[row][col]
type cellParser func(row, col int, text string) Value

// normalizeHeader names blank header cells "Unnamed: N" and suffixes
// repeated names with ".1", ".2", ...
func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			candidate := fmt.Sprintf("%s.%d", name, n+1)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				n++
				candidate = fmt.Sprintf("%s.%d", name, n+1)
			}
			name = candidate
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

// buildTable turns raw string rows (header first) into a Table. Fully empty
// data rows are skipped and trailing empty header cells are dropped when no
// data row reaches them.
func buildTable(raw [][]string) (*Table, error) {
	return buildTableWith(raw, func(_, _ int, text string) Value { return ParseCell(text) })
}

// buildTableWith is buildTable with a per-cell parser for sources that know
// the stored type of each cell
func buildTableWith(raw [][]string, parse cellParser) (*Table, error) {
	if len(raw) == 0 || isBlankRow(raw[0]) {
		return nil, ErrEmptyTable
	}

	width := len(raw[0])
	for _, r := range raw[1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	copy(header, raw[0])
	for width > 0 && strings.TrimSpace(header[width-1]) == "" && !columnHasData(raw[1:], width-1) {
		width--
	}
	columns := normalizeHeader(header[:width])

	rows := make([]Row, 0, len(raw)-1)
	for n, r := range raw[1:] {
		if isBlankRow(r) {
			continue
		}
		row := make(Row, width)
		for i := 0; i < width && i < len(r); i++ {
			row[i] = parse(n+1, i, r[i])
		}
		rows = append(rows, row)
	}

	return NewTable(columns, rows), nil
}

func isBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func columnHasData(rows [][]string, col int) bool {
	for _, r := range rows {
		if col < len(r) && strings.TrimSpace(r[col]) != "" {
			return true
		}
	}
	return false
}

// XLSXSource reads a workbook. Sheet selects a worksheet by name; when empty
// the first sheet is used.
type XLSXSource struct {
	Path   string
	Sheet  string
	Logger *slog.Logger
}

// Name implements Source
func (s *XLSXSource) Name() string { return s.Path }

// Load implements Source
func (s *XLSXSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, apperrors.NewSourceError("failed to open workbook", err).WithContext("file", s.Path)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", ErrEmptyTable).WithContext("file", s.Path)
		}
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).
			WithContext("file", s.Path).
			WithContext("sheet", sheet)
	}

	table, err := buildTableWith(raw, xlsxCellParser(f, sheet))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to build table", err).
			WithContext("file", s.Path).
			WithContext("sheet", sheet)
	}

	logger(s.Logger).DebugContext(ctx, "workbook parsed",
		slog.String("file", s.Path),
		slog.String("sheet", sheet),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.columns)))

	return table, nil
}

// xlsxCellParser keeps string-typed cells as text. Only cells that read as a
// number are looked up, since any other text parses the same either way.
func xlsxCellParser(f *excelize.File, sheet string) cellParser {
	return func(row, col int, text string) Value {
		v := ParseCell(text)
		if !v.IsNumber() {
			return v
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return v
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			return v
		}
		switch typ {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
			return TextCell(text)
		}
		return v
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
