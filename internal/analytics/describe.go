package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"dtindex/internal/dataprocessing"
)

// ColumnStats are the descriptive statistics of one column. Numeric columns
// fill the moments and quantiles; text columns fill Unique, Top and Freq.
// Statistics that cannot be computed are nil.
type ColumnStats struct {
	Column  string   `json:"column"`
	Numeric bool     `json:"numeric"`
	Count   int      `json:"count"`
	Mean    *float64 `json:"mean,omitempty"`
	Std     *float64 `json:"std,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Q25     *float64 `json:"q25,omitempty"`
	Median  *float64 `json:"median,omitempty"`
	Q75     *float64 `json:"q75,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Unique  *int     `json:"unique,omitempty"`
	Top     *string  `json:"top,omitempty"`
	Freq    *int     `json:"freq,omitempty"`
}

// CorrelationMatrix is a square Pearson matrix over Columns. Undefined
// coefficients are nil.
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Statistics bundles Describe and, for several numeric columns, Correlation
type Statistics struct {
	Columns     []string           `json:"columns"`
	Describe    []ColumnStats      `json:"describe"`
	Correlation *CorrelationMatrix `json:"correlation,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Quantile interpolates linearly between the closest ranks of sorted data,
// h = (n-1)p
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Describe computes descriptive statistics for the named columns. When the
// selection holds at least one numeric column only the numeric columns are
// described; text columns are described only in an all-text selection.
func Describe(t *dataprocessing.Table, columns []string) ([]ColumnStats, error) {
	numeric := stringSet(t.NumericColumns())
	anyNumeric := false
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		if _, ok := numeric[c]; ok {
			anyNumeric = true
		}
	}

	out := make([]ColumnStats, 0, len(columns))
	for _, c := range columns {
		if _, ok := numeric[c]; ok {
			out = append(out, describeNumbers(c, t.Floats(c)))
			continue
		}
		if !anyNumeric {
			out = append(out, describeText(c, t.Column(c)))
		}
	}
	return out, nil
}

func describeNumbers(column string, values []float64) ColumnStats {
	s := ColumnStats{Column: column, Numeric: true, Count: len(values)}
	if len(values) == 0 {
		return s
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = finite(stat.Mean(sorted, nil))
	if len(sorted) > 1 {
		s.Std = finite(stat.StdDev(sorted, nil))
	}
	s.Min = ptr(sorted[0])
	s.Q25 = ptr(Quantile(sorted, 0.25))
	s.Median = ptr(Quantile(sorted, 0.5))
	s.Q75 = ptr(Quantile(sorted, 0.75))
	s.Max = ptr(sorted[len(sorted)-1])
	return s
}

func describeText(column string, cells []dataprocessing.Value) ColumnStats {
	s := ColumnStats{Column: column}
	freq := map[string]int{}
	order := []string{}
	for _, v := range cells {
		if v.IsNull() {
			continue
		}
		s.Count++
		k := v.String()
		if _, seen := freq[k]; !seen {
			order = append(order, k)
		}
		freq[k]++
	}
	if s.Count == 0 {
		return s
	}
	s.Unique = ptr(len(freq))
	// first value reaching the highest frequency wins
	top := order[0]
	for _, k := range order[1:] {
		if freq[k] > freq[top] {
			top = k
		}
	}
	s.Top = ptr(top)
	s.Freq = ptr(freq[top])
	return s
}

// Correlation computes the Pearson coefficient of every pair of columns over
// the rows where both are numbers
func Correlation(t *dataprocessing.Table, columns []string) (*CorrelationMatrix, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.ColumnIndex(c)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		idx[i] = j
	}

	m := &CorrelationMatrix{Columns: columns, Values: make([][]*float64, len(columns))}
	for i := range columns {
		m.Values[i] = make([]*float64, len(columns))
	}
	for i := range columns {
		for j := i; j < len(columns); j++ {
			x, y := pairs(t, idx[i], idx[j])
			var r *float64
			if len(x) > 1 {
				r = finite(stat.Correlation(x, y, nil))
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pairs(t *dataprocessing.Table, a, b int) (x, y []float64) {
	for _, r := range t.Rows() {
		if r[a].IsNumber() && r[b].IsNumber() {
			x = append(x, r[a].Num)
			y = append(y, r[b].Num)
		}
	}
	return x, y
}

// Statistics describes the selected columns of a filtered table, defaulting
// to the index column. The correlation matrix covers the numeric columns of
// the selection when there are at least two.
func (e *Explorer) Statistics(t *dataprocessing.Table, columns []string) (*Statistics, error) {
	if len(columns) == 0 {
		if !e.panel.HasIndex {
			return nil, ErrNoIndexColumn
		}
		columns = []string{e.panel.Schema.Index}
	}
	desc, err := Describe(t, columns)
	if err != nil {
		return nil, err
	}
	out := &Statistics{Columns: columns, Describe: desc}

	numeric := []string{}
	for _, d := range desc {
		if d.Numeric {
			numeric = append(numeric, d.Column)
		}
	}
	if len(columns) > 1 && len(numeric) > 1 {
		corr, err := Correlation(t, numeric)
		if err != nil {
			return nil, err
		}
		out.Correlation = corr
	}
	return out, nil
}
