package analytics

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"dtindex/internal/dataprocessing"
)

var (
	// ErrSelectionLimit is returned when a filter selects too many stocks
	ErrSelectionLimit = errors.New("selection limit exceeded")
	// ErrNoIndexColumn is returned by index charts when the dataset has no index column
	ErrNoIndexColumn = errors.New("index column not available")
	// ErrUnknownColumn is returned when a metric or statistics column does not exist
	ErrUnknownColumn = errors.New("unknown column")
)

// RankingBy names the grouping a ranking was built on
type RankingBy string

const (
	RankByIndustry RankingBy = "industry"
	RankByStock    RankingBy = "stock"
	RankByNone     RankingBy = "none"
)

// YearStat is the mean and number of observations in one year
type YearStat struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// RankEntry is one group of a ranking
type RankEntry struct {
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
}

// Ranking is a descending list of group means
type Ranking struct {
	By      RankingBy   `json:"by"`
	Column  string      `json:"column"`
	Entries []RankEntry `json:"entries"`
	Hint    string      `json:"hint,omitempty"`
}

// ComparisonPoint is the mean index of one stock in one year
type ComparisonPoint struct {
	Stock string  `json:"stock"`
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
}

// Comparison holds per stock-year means
type Comparison struct {
	Stocks []string          `json:"stocks"`
	Points []ComparisonPoint `json:"points"`
	Hint   string            `json:"hint,omitempty"`
}

// MetricAnalysis is the yearly trend of one auxiliary metric with an optional
// stock ranking
type MetricAnalysis struct {
	Metric  string     `json:"metric"`
	Yearly  []YearStat `json:"yearly"`
	Ranking *Ranking   `json:"ranking,omitempty"`
}

type group struct {
	sum   float64
	count int
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

// groupMeans averages the numeric cells of column per key. Rows whose key is
// empty or whose value is not a number are ignored.
func groupMeans[K comparable](t *dataprocessing.Table, keyOf func(dataprocessing.Row) (K, bool), column string) map[K]*group {
	idx, _ := t.ColumnIndex(column)
	out := map[K]*group{}
	for _, r := range t.Rows() {
		k, ok := keyOf(r)
		if !ok || !r[idx].IsNumber() {
			continue
		}
		g := out[k]
		if g == nil {
			g = &group{}
			out[k] = g
		}
		g.sum += r[idx].Num
		g.count++
	}
	return out
}

func textKey(t *dataprocessing.Table, column string) func(dataprocessing.Row) (string, bool) {
	idx, _ := t.ColumnIndex(column)
	return func(r dataprocessing.Row) (string, bool) {
		if r[idx].IsNull() {
			return "", false
		}
		return r[idx].String(), true
	}
}

// yearly groups a column by year, in ascending year order
func (e *Explorer) yearly(t *dataprocessing.Table, column string) []YearStat {
	yearIdx, _ := t.ColumnIndex(e.panel.Schema.Year)
	groups := groupMeans(t, func(r dataprocessing.Row) (int, bool) {
		if r[yearIdx].IsNull() {
			return 0, false
		}
		return int(r[yearIdx].Num), true
	}, column)

	out := make([]YearStat, 0, len(groups))
	for y, g := range groups {
		out = append(out, YearStat{Year: y, Mean: g.sum / float64(g.count), Count: g.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// YearlyTrend returns the mean index and count per year of a filtered table
func (e *Explorer) YearlyTrend(t *dataprocessing.Table) ([]YearStat, error) {
	if !e.panel.HasIndex {
		return nil, ErrNoIndexColumn
	}
	return e.yearly(t, e.panel.Schema.Index), nil
}

// rank builds a descending top-n ranking of group means. Ties keep the
// ascending label order.
func rank(groups map[string]*group, n int) []RankEntry {
	labels := make([]string, 0, len(groups))
	for k := range groups {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	out := make([]RankEntry, 0, len(labels))
	for _, l := range labels {
		g := groups[l]
		out = append(out, RankEntry{Label: l, Mean: g.sum / float64(g.count)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Ranking ranks industries when more than one is selected, otherwise stocks
// when more than one is selected. With neither the ranking is empty and
// carries a hint.
func (e *Explorer) Ranking(t *dataprocessing.Table, f Filter) (*Ranking, error) {
	if !e.panel.HasIndex {
		return nil, ErrNoIndexColumn
	}
	s := e.panel.Schema
	switch {
	case len(f.Industries) > 1 && e.panel.HasIndustry:
		return &Ranking{
			By:      RankByIndustry,
			Column:  s.Index,
			Entries: rank(groupMeans(t, textKey(t, s.Industry), s.Index), e.limits.RankingSize),
		}, nil
	case len(f.Stocks) > 1 && e.panel.HasStock:
		return &Ranking{
			By:      RankByStock,
			Column:  s.Index,
			Entries: rank(groupMeans(t, textKey(t, s.Stock), s.Index), e.limits.RankingSize),
		}, nil
	default:
		return &Ranking{
			By:      RankByNone,
			Column:  s.Index,
			Entries: []RankEntry{},
			Hint:    "select more than one stock or industry to see a ranking",
		}, nil
	}
}

// Comparison returns the mean index per stock and year when more than one
// stock is selected
func (e *Explorer) Comparison(t *dataprocessing.Table, f Filter) (*Comparison, error) {
	if !e.panel.HasIndex {
		return nil, ErrNoIndexColumn
	}
	if len(f.Stocks) <= 1 || !e.panel.HasStock {
		return &Comparison{
			Stocks: []string{},
			Points: []ComparisonPoint{},
			Hint:   "select more than one stock to compare",
		}, nil
	}

	s := e.panel.Schema
	stockIdx, _ := t.ColumnIndex(s.Stock)
	yearIdx, _ := t.ColumnIndex(s.Year)
	indexIdx, _ := t.ColumnIndex(s.Index)

	type key struct {
		stock string
		year  int
	}
	groups := map[key]*group{}
	stocks := map[string]struct{}{}
	for _, r := range t.Rows() {
		if r[stockIdx].IsNull() || r[yearIdx].IsNull() || !r[indexIdx].IsNumber() {
			continue
		}
		k := key{stock: r[stockIdx].String(), year: int(r[yearIdx].Num)}
		g := groups[k]
		if g == nil {
			g = &group{}
			groups[k] = g
		}
		g.sum += r[indexIdx].Num
		g.count++
		stocks[k.stock] = struct{}{}
	}

	c := &Comparison{Stocks: sortedKeys(stocks), Points: make([]ComparisonPoint, 0, len(groups))}
	for k, g := range groups {
		c.Points = append(c.Points, ComparisonPoint{Stock: k.stock, Year: k.year, Mean: g.sum / float64(g.count)})
	}
	sort.Slice(c.Points, func(i, j int) bool {
		if c.Points[i].Stock != c.Points[j].Stock {
			return c.Points[i].Stock < c.Points[j].Stock
		}
		return c.Points[i].Year < c.Points[j].Year
	})
	return c, nil
}

// AnalyzeMetric returns the yearly mean of an auxiliary metric and, when
// stocks are selected, the stock ranking on it
func (e *Explorer) AnalyzeMetric(t *dataprocessing.Table, f Filter, metric string) (*MetricAnalysis, error) {
	if !e.HasMetric(metric) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, metric)
	}
	a := &MetricAnalysis{Metric: metric, Yearly: e.yearly(t, metric)}
	if len(f.Stocks) > 0 && e.panel.HasStock {
		a.Ranking = &Ranking{
			By:      RankByStock,
			Column:  metric,
			Entries: rank(groupMeans(t, textKey(t, e.panel.Schema.Stock), metric), e.limits.RankingSize),
		}
	}
	return a, nil
}
