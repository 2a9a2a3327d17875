package analytics

import (
	"errors"
	"fmt"
	"time"

	"dtindex/internal/dataprocessing"
)

// ErrStockNotFound is returned when a stock code has no rows in the panel
var ErrStockNotFound = errors.New("stock not found")

// Direction of a first-to-last change
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Position of one year's value relative to the stock's mean
type Position string

const (
	PositionAbove Position = "above"
	PositionBelow Position = "below"
	PositionEqual Position = "equal"
)

// Point is one (year, index) observation
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Summary holds the basic statistics of a stock's index history
type Summary struct {
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Trend compares the first and the last observation
type Trend struct {
	FirstYear  int       `json:"first_year"`
	FirstValue float64   `json:"first_value"`
	LastYear   int       `json:"last_year"`
	LastValue  float64   `json:"last_value"`
	Change     float64   `json:"change"`
	ChangeRate float64   `json:"change_rate"`
	Direction  Direction `json:"direction"`
}

// YearDetail places the selected year within the stock's history
type YearDetail struct {
	Year        int      `json:"year"`
	Value       float64  `json:"value"`
	Rank        int      `json:"rank"`
	Total       int      `json:"total"`
	Percentile  float64  `json:"percentile"`
	Diff        float64  `json:"diff"`
	DiffPercent float64  `json:"diff_percent"`
	Position    Position `json:"position"`
}

// StockReport is everything the lookup view shows for one stock and year
type StockReport struct {
	Stock      string          `json:"stock"`
	Year       int             `json:"year"`
	Columns    []string        `json:"columns"`
	History    [][]interface{} `json:"history"`
	YearRow    map[string]any  `json:"year_row,omitempty"`
	Series     []Point         `json:"series"`
	Summary    Summary         `json:"summary"`
	Trend      *Trend          `json:"trend,omitempty"`
	YearDetail *YearDetail     `json:"year_detail,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// BuildStockReport computes the lookup view for one stock. A year without
// data is not an error: the report carries a warning and no year detail.
func BuildStockReport(panel *dataprocessing.LookupPanel, stock string, year int) (*StockReport, error) {
	history, entries := panel.History(stock)
	if history.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStockNotFound, stock)
	}

	report := &StockReport{
		Stock:   stock,
		Year:    year,
		Columns: history.Columns(),
		History: history.Matrix(),
		Series:  make([]Point, 0, len(entries)),
	}

	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		report.Series = append(report.Series, Point{Year: e.Year, Value: e.Value})
		values = append(values, e.Value)
	}
	report.Summary = summarize(values)

	if len(report.Series) >= 2 {
		report.Trend = trendOf(report.Series)
	}

	// first row for the year wins when a stock has duplicates
	for i, e := range entries {
		if e.Year != year {
			continue
		}
		report.YearRow = history.Slice(i, i+1).Records()[0]
		report.YearDetail = yearDetail(year, e.Value, values, report.Summary.Mean)
		break
	}
	if report.YearDetail == nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("no data for %s in %d", stock, year))
	}

	return report, nil
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Max: values[0], Min: values[0], Count: len(values)}
	var sum float64
	for _, v := range values {
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
		sum += v
	}
	s.Mean = sum / float64(len(values))
	return s
}

func trendOf(series []Point) *Trend {
	first, last := series[0], series[len(series)-1]
	t := &Trend{
		FirstYear:  first.Year,
		FirstValue: first.Value,
		LastYear:   last.Year,
		LastValue:  last.Value,
		Change:     last.Value - first.Value,
	}
	if first.Value != 0 {
		t.ChangeRate = t.Change / first.Value * 100
	}
	switch {
	case t.Change > 0:
		t.Direction = DirectionUp
	case t.Change < 0:
		t.Direction = DirectionDown
	default:
		t.Direction = DirectionFlat
	}
	return t
}

func yearDetail(year int, value float64, values []float64, mean float64) *YearDetail {
	rank := 0
	for _, v := range values {
		if v <= value {
			rank++
		}
	}
	d := &YearDetail{
		Year:       year,
		Value:      value,
		Rank:       rank,
		Total:      len(values),
		Percentile: float64(rank) / float64(len(values)) * 100,
		Diff:       value - mean,
	}
	if mean != 0 {
		d.DiffPercent = d.Diff / mean * 100
	}
	switch {
	case d.Diff > 0:
		d.Position = PositionAbove
	case d.Diff < 0:
		d.Position = PositionBelow
	default:
		d.Position = PositionEqual
	}
	return d
}

// DatasetOverview describes the loaded dataset
type DatasetOverview struct {
	Source    string                   `json:"source"`
	LoadedAt  time.Time                `json:"loaded_at"`
	Rows      int                      `json:"rows"`
	Columns   int                      `json:"columns"`
	MemoryKB  float64                  `json:"memory_kb"`
	Names     []string                 `json:"column_names"`
	Detection dataprocessing.Detection `json:"detection"`
	Dropped   int                      `json:"dropped_rows"`
	Stocks    int                      `json:"stocks"`
	Years     []int                    `json:"years"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// Overview summarises a raw table and the lookup panel cleaned from it
func Overview(raw *dataprocessing.Table, panel *dataprocessing.LookupPanel, source string, loadedAt time.Time) DatasetOverview {
	o := DatasetOverview{
		Source:   source,
		LoadedAt: loadedAt,
		Rows:     raw.Len(),
		Columns:  len(raw.Columns()),
		MemoryKB: float64(raw.MemoryBytes()) / 1024,
		Names:    raw.Columns(),
	}
	if panel != nil {
		o.Detection = panel.Detection
		o.Dropped = panel.DroppedRows
		o.Stocks = len(panel.Stocks)
		o.Years = panel.Years
		o.Warnings = append(o.Warnings, panel.Detection.Warnings...)
	}
	return o
}
