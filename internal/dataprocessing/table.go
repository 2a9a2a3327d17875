package dataprocessing

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrEmptyTable is returned when a source holds no header row.
var ErrEmptyTable = errors.New("table has no header row")

// Kind tells what a cell holds
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is one cell of a Table
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Null returns an empty cell
func Null() Value { return Value{} }

// Number returns a numeric cell. NaN and infinities are stored as Null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text returns a text cell
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// IsNull reports whether the cell is empty
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumber reports whether the cell holds a number
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// String formats the cell the way it is shown and exported: numbers without
// trailing zeros, Null as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindText:
		return v.Str
	default:
		return ""
	}
}

// Float returns the numeric value of the cell. Text cells are parsed.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Interface returns the cell as a JSON-friendly value
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Str
	default:
		return nil
	}
}

// FormatNumber renders integral values without a decimal part
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// compare orders cells: numbers before text, nulls last
func compare(a, b Value) int {
	if a.Kind != b.Kind {
		rank := func(k Kind) int {
			switch k {
			case KindNumber:
				return 0
			case KindText:
				return 1
			default:
				return 2
			}
		}
		return rank(a.Kind) - rank(b.Kind)
	}
	switch a.Kind {
	case KindNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case KindText:
		return strings.Compare(a.Str, b.Str)
	default:
		return 0
	}
}

// Row is a record aligned with its table's columns
type Row []Value

// Table is an in-memory rectangular dataset with named columns
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable builds a table. Rows shorter than the header are padded with Null
// and longer rows are truncated.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([]Row, 0, len(rows)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for _, r := range rows {
		t.rows = append(t.rows, fitRow(r, len(columns)))
	}
	return t
}

func fitRow(r Row, width int) Row {
	switch {
	case len(r) == width:
		return r
	case len(r) > width:
		return r[:width]
	default:
		padded := make(Row, width)
		copy(padded, r)
		return padded
	}
}

// derive creates a table sharing t's column metadata
func (t *Table) derive(rows []Row) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Columns returns the column names in order
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows. Callers must not modify them.
func (t *Table) Rows() []Row { return t.rows }

// Row returns row i
func (t *Table) Row(i int) Row { return t.rows[i] }

// ColumnIndex returns the position of a column
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table has a column with that name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of one column's cells, or nil when it does not exist
func (t *Table) Column(name string) []Value {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out
}

// Floats returns the numeric cells of a column, skipping everything else
func (t *Table) Floats(name string) []float64 {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		if row[i].IsNumber() {
			out = append(out, row[i].Num)
		}
	}
	return out
}

// Filter returns the rows for which keep is true
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return t.derive(rows)
}

// Select projects the table onto the named columns, in the given order.
// Unknown names are skipped.
func (t *Table) Select(names []string) *Table {
	cols := make([]string, 0, len(names))
	pos := make([]int, 0, len(names))
	for _, n := range names {
		if i, ok := t.index[n]; ok {
			cols = append(cols, n)
			pos = append(pos, i)
		}
	}

	rows := make([]Row, len(t.rows))
	for r, row := range t.rows {
		projected := make(Row, len(pos))
		for j, i := range pos {
			projected[j] = row[i]
		}
		rows[r] = projected
	}
	return NewTable(cols, rows)
}

// Slice returns rows [start, end), clamped to the table bounds
func (t *Table) Slice(start, end int) *Table {
	if start < 0 {
		start = 0
	}
	if end > len(t.rows) {
		end = len(t.rows)
	}
	if start >= end {
		return t.derive(nil)
	}
	return t.derive(t.rows[start:end])
}

// SortBy returns the rows stably ordered by a column, ascending, nulls last
func (t *Table) SortBy(name string) *Table {
	rows := append([]Row(nil), t.rows...)
	i, ok := t.index[name]
	if !ok {
		return t.derive(rows)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return compare(rows[a][i], rows[b][i]) < 0
	})
	return t.derive(rows)
}

// Unique returns the distinct non-null cells of a column, sorted
func (t *Table) Unique(name string) []Value {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	seen := make(map[Value]struct{})
	out := []Value{}
	for _, row := range t.rows {
		v := row[i]
		if v.IsNull() {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(a, b int) bool { return compare(out[a], out[b]) < 0 })
	return out
}

// UniqueStrings returns the distinct non-null cells of a column as sorted strings
func (t *Table) UniqueStrings(name string) []string {
	values := t.Unique(name)
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.String())
	}
	sort.Strings(out)
	return dedupSorted(out)
}

func dedupSorted(in []string) []string {
	if len(in) < 2 {
		return in
	}
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// NumericColumns returns the columns whose cells are all numbers or null, with
// at least one number
func (t *Table) NumericColumns() []string {
	out := []string{}
	for i, name := range t.columns {
		numbers := 0
		numeric := true
		for _, row := range t.rows {
			switch row[i].Kind {
			case KindNumber:
				numbers++
			case KindText:
				numeric = false
			}
			if !numeric {
				break
			}
		}
		if numeric && numbers > 0 {
			out = append(out, name)
		}
	}
	return out
}

// MemoryBytes approximates the in-memory size of the table: 8 bytes per
// numeric or null cell and the string length for text cells.
func (t *Table) MemoryBytes() int64 {
	var total int64
	for _, name := range t.columns {
		total += int64(len(name))
	}
	for _, row := range t.rows {
		for _, v := range row {
			if v.Kind == KindText {
				total += int64(len(v.Str)) + 16
				continue
			}
			total += 8
		}
	}
	return total
}

// Fingerprint hashes the column names and every cell. Equal tables give
// equal fingerprints in any process.
func (t *Table) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [9]byte
	for _, name := range t.columns {
		_, _ = d.WriteString(name)
		_, _ = d.Write(buf[:1])
	}
	for _, row := range t.rows {
		for _, v := range row {
			buf[0] = byte(v.Kind)
			switch v.Kind {
			case KindNumber:
				binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.Num))
				_, _ = d.Write(buf[:])
			case KindText:
				_, _ = d.Write(buf[:1])
				_, _ = d.WriteString(v.Str)
				_, _ = d.Write([]byte{0})
			default:
				_, _ = d.Write(buf[:1])
			}
		}
	}
	return d.Sum64()
}

// Records returns the rows as column-name keyed maps
func (t *Table) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, len(t.rows))
	for r, row := range t.rows {
		rec := make(map[string]interface{}, len(t.columns))
		for i, c := range t.columns {
			rec[c] = row[i].Interface()
		}
		out[r] = rec
	}
	return out
}

// Matrix returns the rows as JSON-friendly values aligned with Columns
func (t *Table) Matrix() [][]interface{} {
	out := make([][]interface{}, len(t.rows))
	for r, row := range t.rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v.Interface()
		}
		out[r] = cells
	}
	return out
}
