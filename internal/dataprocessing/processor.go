package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrMissingColumn is returned when a column the explorer cannot work without
// is absent from the dataset.
var ErrMissingColumn = errors.New("required column missing")

// StockCodeWidth is the width stock codes made only of digits are padded to
const StockCodeWidth = 6

// NormalizeStockCode renders a stock cell as text and left-pads all-digit
// codes with zeros to six characters. Integral numbers lose their decimal
// part first, so a code stored as the number 1 becomes "000001".
func NormalizeStockCode(v Value) string {
	var s string
	switch v.Kind {
	case KindNumber:
		s = FormatNumber(v.Num)
	case KindText:
		s = strings.TrimSpace(v.Str)
	default:
		return ""
	}
	if isDigits(s) && len(s) < StockCodeWidth {
		s = strings.Repeat("0", StockCodeWidth-len(s)) + s
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Year coerces a cell to an integral year
func Year(v Value) (int, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// LookupEntry is the coerced stock, year and index of one lookup row
type LookupEntry struct {
	Stock string
	Year  int
	Value float64
}

// LookupPanel is the dataset prepared for the single-stock lookup view. Only
// rows without a null cell remain. Entries holds the coerced key cells of
// each row, so the view works even when one column serves two roles.
type LookupPanel struct {
	Table       *Table
	Entries     []LookupEntry
	Detection   Detection
	Stocks      []string
	Years       []int
	DroppedRows int
}

// CleanLookup prepares a raw table for the lookup view. A row is dropped when
// a key cell cannot be coerced or when any cell is null.
func CleanLookup(t *Table, d Detection) (*LookupPanel, error) {
	stockIdx, ok := t.ColumnIndex(d.StockColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, d.StockColumn)
	}
	yearIdx, ok := t.ColumnIndex(d.YearColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, d.YearColumn)
	}
	indexIdx, ok := t.ColumnIndex(d.IndexColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, d.IndexColumn)
	}

	rows := make([]Row, 0, t.Len())
	entries := make([]LookupEntry, 0, t.Len())
	stocks := map[string]struct{}{}
	years := map[int]struct{}{}

	for _, src := range t.Rows() {
		if hasNull(src) {
			continue
		}
		code := NormalizeStockCode(src[stockIdx])
		if code == "" {
			continue
		}
		year, ok := Year(src[yearIdx])
		if !ok {
			continue
		}
		value, ok := src[indexIdx].Float()
		if !ok {
			continue
		}

		// the stock cell is written last so a column shared with the
		// year or index role still shows the code
		row := append(Row(nil), src...)
		row[yearIdx] = Number(float64(year))
		row[indexIdx] = Number(value)
		row[stockIdx] = Text(code)
		rows = append(rows, row)
		entries = append(entries, LookupEntry{Stock: code, Year: year, Value: value})

		stocks[code] = struct{}{}
		years[year] = struct{}{}
	}

	panel := &LookupPanel{
		Table:       t.derive(rows),
		Entries:     entries,
		Detection:   d,
		Stocks:      make([]string, 0, len(stocks)),
		Years:       make([]int, 0, len(years)),
		DroppedRows: t.Len() - len(rows),
	}
	for s := range stocks {
		panel.Stocks = append(panel.Stocks, s)
	}
	for y := range years {
		panel.Years = append(panel.Years, y)
	}
	sort.Strings(panel.Stocks)
	sort.Ints(panel.Years)

	return panel, nil
}

func hasNull(r Row) bool {
	for _, v := range r {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// History returns the rows of one stock ordered by year, stably, together
// with their entries
func (p *LookupPanel) History(stock string) (*Table, []LookupEntry) {
	idx := make([]int, 0)
	for i, e := range p.Entries {
		if e.Stock == stock {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Entries[idx[a]].Year < p.Entries[idx[b]].Year
	})

	rows := make([]Row, len(idx))
	entries := make([]LookupEntry, len(idx))
	for k, i := range idx {
		rows[k] = p.Table.Row(i)
		entries[k] = p.Entries[i]
	}
	return p.Table.derive(rows), entries
}

// Schema names the fixed columns of the explorer view
type Schema struct {
	Stock           string `json:"stock"`
	Company         string `json:"company"`
	Year            string `json:"year"`
	Industry        string `json:"industry"`
	Index           string `json:"index"`
	FrequencyMarker string `json:"frequency_marker"`
}

// ExplorerPanel is the dataset prepared for the multi-filter explorer
type ExplorerPanel struct {
	Table       *Table   `json:"-"`
	Schema      Schema   `json:"schema"`
	HasStock    bool     `json:"has_stock"`
	HasCompany  bool     `json:"has_company"`
	HasIndustry bool     `json:"has_industry"`
	HasIndex    bool     `json:"has_index"`
	Stocks      []string `json:"stocks"`
	Years       []int    `json:"years"`
	Industries  []string `json:"industries"`
	Warnings    []string `json:"warnings,omitempty"`
}

// PrepareExplorer coerces the explorer columns: stock and industry become
// text, the year column integral years (anything else becomes null). Only
// the year column is required. Without a stock column the stock selector is
// empty and stock filters are ignored; other missing columns also only warn.
func PrepareExplorer(t *Table, s Schema) (*ExplorerPanel, error) {
	yearIdx, ok := t.ColumnIndex(s.Year)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, s.Year)
	}
	stockIdx, hasStock := t.ColumnIndex(s.Stock)
	industryIdx, hasIndustry := t.ColumnIndex(s.Industry)

	p := &ExplorerPanel{
		Schema:      s,
		HasStock:    hasStock,
		HasCompany:  t.HasColumn(s.Company),
		HasIndustry: hasIndustry,
		HasIndex:    t.HasColumn(s.Index),
	}
	if !p.HasStock {
		p.Warnings = append(p.Warnings, fmt.Sprintf("column %s not found, stock filter is ignored", s.Stock))
	}
	if !p.HasIndex {
		p.Warnings = append(p.Warnings, fmt.Sprintf("column %s not found, index charts are unavailable", s.Index))
	}
	if !p.HasIndustry {
		p.Warnings = append(p.Warnings, fmt.Sprintf("column %s not found, industry filter is ignored", s.Industry))
	}
	if !p.HasCompany {
		p.Warnings = append(p.Warnings, fmt.Sprintf("column %s not found", s.Company))
	}

	rows := make([]Row, len(t.Rows()))
	for i, src := range t.Rows() {
		row := append(Row(nil), src...)
		if hasStock {
			row[stockIdx] = asText(row[stockIdx])
		}
		if y, ok := Year(row[yearIdx]); ok {
			row[yearIdx] = Number(float64(y))
		} else {
			row[yearIdx] = Null()
		}
		if hasIndustry {
			row[industryIdx] = asText(row[industryIdx])
		}
		rows[i] = row
	}
	p.Table = t.derive(rows)

	p.Stocks = []string{}
	if hasStock {
		p.Stocks = p.Table.UniqueStrings(s.Stock)
	}
	for _, v := range p.Table.Unique(s.Year) {
		p.Years = append(p.Years, int(v.Num))
	}
	if p.Years == nil {
		p.Years = []int{}
	}
	p.Industries = []string{}
	if hasIndustry {
		p.Industries = p.Table.UniqueStrings(s.Industry)
	}

	return p, nil
}

func asText(v Value) Value {
	if v.Kind == KindNumber {
		return Text(FormatNumber(v.Num))
	}
	return v
}
