package analytics

import (
	"fmt"
	"sort"
	"strings"

	"dtindex/internal/dataprocessing"
	"dtindex/internal/pagination"
)

// Limits bound the explorer's selections and result sizes
type Limits struct {
	MaxStocks        int
	DefaultYearCount int
	SearchFallback   int
	RankingSize      int
	MaxKeyColumns    int
}

// DefaultLimits are the explorer's stock dashboard defaults
var DefaultLimits = Limits{
	MaxStocks:        10,
	DefaultYearCount: 5,
	SearchFallback:   20,
	RankingSize:      10,
	MaxKeyColumns:    10,
}

// Filter selects rows by set membership. An empty list does not restrict.
type Filter struct {
	Stocks     []string `json:"stocks"`
	Years      []int    `json:"years"`
	Industries []string `json:"industries"`
}

// Explorer runs the multi-filter queries over a prepared panel
type Explorer struct {
	panel  *dataprocessing.ExplorerPanel
	limits Limits
}

// NewExplorer wraps a panel. Zero limits fall back to DefaultLimits.
func NewExplorer(panel *dataprocessing.ExplorerPanel, limits Limits) *Explorer {
	if limits.MaxStocks <= 0 {
		limits.MaxStocks = DefaultLimits.MaxStocks
	}
	if limits.DefaultYearCount <= 0 {
		limits.DefaultYearCount = DefaultLimits.DefaultYearCount
	}
	if limits.SearchFallback <= 0 {
		limits.SearchFallback = DefaultLimits.SearchFallback
	}
	if limits.RankingSize <= 0 {
		limits.RankingSize = DefaultLimits.RankingSize
	}
	if limits.MaxKeyColumns <= 0 {
		limits.MaxKeyColumns = DefaultLimits.MaxKeyColumns
	}
	return &Explorer{panel: panel, limits: limits}
}

// Panel returns the underlying panel
func (e *Explorer) Panel() *dataprocessing.ExplorerPanel { return e.panel }

// Limits returns the effective limits
func (e *Explorer) Limits() Limits { return e.limits }

// Validate checks a filter against the selection limits
func (e *Explorer) Validate(f Filter) error {
	if len(f.Stocks) > e.limits.MaxStocks {
		return fmt.Errorf("%w: at most %d stocks can be selected, got %d", ErrSelectionLimit, e.limits.MaxStocks, len(f.Stocks))
	}
	return nil
}

// Apply returns the rows matching the filter
func (e *Explorer) Apply(f Filter) *dataprocessing.Table {
	s := e.panel.Schema
	t := e.panel.Table
	stockIdx, _ := t.ColumnIndex(s.Stock)
	yearIdx, _ := t.ColumnIndex(s.Year)
	industryIdx, _ := t.ColumnIndex(s.Industry)

	stocks := stringSet(f.Stocks)
	if !e.panel.HasStock {
		stocks = nil
	}
	years := make(map[float64]struct{}, len(f.Years))
	for _, y := range f.Years {
		years[float64(y)] = struct{}{}
	}
	industries := stringSet(f.Industries)
	useIndustry := e.panel.HasIndustry && len(industries) > 0

	return t.Filter(func(r dataprocessing.Row) bool {
		if len(stocks) > 0 {
			if _, ok := stocks[r[stockIdx].String()]; !ok || r[stockIdx].IsNull() {
				return false
			}
		}
		if len(years) > 0 {
			if _, ok := years[r[yearIdx].Num]; !ok || r[yearIdx].IsNull() {
				return false
			}
		}
		if useIndustry {
			if _, ok := industries[r[industryIdx].String()]; !ok || r[industryIdx].IsNull() {
				return false
			}
		}
		return true
	})
}

func stringSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}

// SearchResult is the outcome of a stock search
type SearchResult struct {
	Stocks  []string `json:"stocks"`
	Warning string   `json:"warning,omitempty"`
}

// SearchStocks matches stocks by case-insensitive substring. When nothing
// matches the first fallback stocks are returned with a warning.
func SearchStocks(all []string, term string, fallback int) SearchResult {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchResult{Stocks: all}
	}
	needle := strings.ToLower(term)
	out := []string{}
	for _, s := range all {
		if strings.Contains(strings.ToLower(s), needle) {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return SearchResult{Stocks: out}
	}
	if fallback > len(all) {
		fallback = len(all)
	}
	return SearchResult{
		Stocks:  all[:fallback],
		Warning: fmt.Sprintf("no stock matches %q, showing the first %d", term, fallback),
	}
}

// DefaultYears returns the last n years, or all of them when there are no more than n
func DefaultYears(years []int, n int) []int {
	if len(years) > n {
		return append([]int(nil), years[len(years)-n:]...)
	}
	return append([]int{}, years...)
}

// Options lists what the explorer's selectors offer
type Options struct {
	Stocks       []string `json:"stocks"`
	Years        []int    `json:"years"`
	DefaultYears []int    `json:"default_years"`
	Industries   []string `json:"industries"`
	MaxStocks    int      `json:"max_stocks"`
	PageSizes    []int    `json:"page_sizes"`
	Warning      string   `json:"warning,omitempty"`
}

// Options returns the selector contents, with stocks narrowed by search
func (e *Explorer) Options(search string) Options {
	res := SearchStocks(e.panel.Stocks, search, e.limits.SearchFallback)
	return Options{
		Stocks:       res.Stocks,
		Years:        e.panel.Years,
		DefaultYears: DefaultYears(e.panel.Years, e.limits.DefaultYearCount),
		Industries:   e.panel.Industries,
		MaxStocks:    e.limits.MaxStocks,
		PageSizes:    pagination.Sizes,
		Warning:      res.Warning,
	}
}

// FilterOverview is the headline numbers of a filtered selection
type FilterOverview struct {
	Records   int      `json:"records"`
	Stocks    int      `json:"stocks"`
	Years     int      `json:"years"`
	MeanIndex *float64 `json:"mean_index,omitempty"`
	Columns   int      `json:"columns,omitempty"`
}

// Overview counts a filtered table. Without an index column the column count
// is reported instead of the mean.
func (e *Explorer) Overview(t *dataprocessing.Table) FilterOverview {
	s := e.panel.Schema
	o := FilterOverview{
		Records: t.Len(),
		Years:   len(t.Unique(s.Year)),
	}
	if e.panel.HasStock {
		o.Stocks = len(t.Unique(s.Stock))
	}
	if e.panel.HasIndex {
		if m, ok := mean(t.Floats(s.Index)); ok {
			o.MeanIndex = &m
		}
	} else {
		o.Columns = len(t.Columns())
	}
	return o
}

// KeyColumns returns the columns the records table shows by default: the
// fixed schema columns followed by numeric word-frequency columns.
func (e *Explorer) KeyColumns() []string {
	s := e.panel.Schema
	t := e.panel.Table

	key := []string{s.Stock, s.Company, s.Year, s.Industry}
	if e.panel.HasIndex {
		key = append(key, s.Index)
	}
	included := stringSet(key)
	for _, c := range t.NumericColumns() {
		if len(key) >= e.limits.MaxKeyColumns {
			break
		}
		if _, ok := included[c]; ok || !strings.Contains(c, s.FrequencyMarker) {
			continue
		}
		key = append(key, c)
	}

	out := make([]string, 0, len(key))
	for _, c := range key {
		if t.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

// DisplayTable projects a filtered table onto the key columns, or returns it
// unchanged when all columns are requested.
func (e *Explorer) DisplayTable(t *dataprocessing.Table, allColumns bool) *dataprocessing.Table {
	if allColumns {
		return t
	}
	return t.Select(e.KeyColumns())
}

// RecordsPage is one page of the records table
type RecordsPage struct {
	Columns    []string            `json:"columns"`
	Rows       [][]interface{}     `json:"rows"`
	Pagination pagination.Metadata `json:"pagination"`
}

// Records pages the display table of a filtered selection
func (e *Explorer) Records(t *dataprocessing.Table, allColumns bool, p pagination.Params) RecordsPage {
	view := e.DisplayTable(t, allColumns)
	meta := pagination.Paginate(view.Len(), p)
	start, end := meta.Bounds()
	return RecordsPage{
		Columns:    view.Columns(),
		Rows:       view.Slice(start, end).Matrix(),
		Pagination: meta,
	}
}

// Metrics lists the numeric columns other than the index and the year
func (e *Explorer) Metrics() []string {
	s := e.panel.Schema
	out := []string{}
	for _, c := range e.panel.Table.NumericColumns() {
		if c == s.Index || c == s.Year {
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasMetric reports whether name is one of Metrics
func (e *Explorer) HasMetric(name string) bool {
	for _, c := range e.Metrics() {
		if c == name {
			return true
		}
	}
	return false
}

func sortedKeys[K int | string](m map[K]struct{}) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
