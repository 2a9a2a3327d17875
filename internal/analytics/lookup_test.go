package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/dataprocessing"
)

func lookupPanel(t *testing.T) *dataprocessing.LookupPanel {
	t.Helper()
	n := dataprocessing.Number
	raw := dataprocessing.NewTable(
		[]string{"股票代码", "年份", "数字化转型指数"},
		[]dataprocessing.Row{
			{n(1), n(2021), n(15)},
			{dataprocessing.Text("000001"), n(2019), n(10)},
			{n(1), n(2020), n(20)},
			{n(600000), n(2020), n(5)},
			{dataprocessing.Null(), n(2020), n(7)},
		},
	)
	det, err := dataprocessing.DetectColumns(raw.Columns())
	require.NoError(t, err)
	panel, err := dataprocessing.CleanLookup(raw, det)
	require.NoError(t, err)
	return panel
}

func TestBuildStockReport(t *testing.T) {
	panel := lookupPanel(t)

	report, err := BuildStockReport(panel, "000001", 2020)
	require.NoError(t, err)

	assert.Equal(t, []Point{{2019, 10}, {2020, 20}, {2021, 15}}, report.Series)
	assert.Equal(t, Summary{Max: 20, Min: 10, Mean: 15, Count: 3}, report.Summary)
	assert.Len(t, report.History, 3)
	assert.Empty(t, report.Warnings)

	require.NotNil(t, report.Trend)
	assert.Equal(t, 2019, report.Trend.FirstYear)
	assert.Equal(t, 2021, report.Trend.LastYear)
	assert.InDelta(t, 5, report.Trend.Change, 1e-9)
	assert.InDelta(t, 50, report.Trend.ChangeRate, 1e-9)
	assert.Equal(t, DirectionUp, report.Trend.Direction)

	require.NotNil(t, report.YearDetail)
	d := report.YearDetail
	assert.Equal(t, 3, d.Rank)
	assert.Equal(t, 3, d.Total)
	assert.InDelta(t, 100, d.Percentile, 1e-9)
	assert.InDelta(t, 5, d.Diff, 1e-9)
	assert.InDelta(t, 100.0/3, d.DiffPercent, 1e-9)
	assert.Equal(t, PositionAbove, d.Position)
	assert.Equal(t, "000001", report.YearRow["股票代码"])
}

func TestBuildStockReportMissingYear(t *testing.T) {
	report, err := BuildStockReport(lookupPanel(t), "000001", 2018)
	require.NoError(t, err)

	assert.Nil(t, report.YearDetail)
	assert.Nil(t, report.YearRow)
	assert.Equal(t, []string{"no data for 000001 in 2018"}, report.Warnings)
}

func TestBuildStockReportSinglePoint(t *testing.T) {
	report, err := BuildStockReport(lookupPanel(t), "600000", 2020)
	require.NoError(t, err)

	assert.Nil(t, report.Trend)
	require.NotNil(t, report.YearDetail)
	assert.Equal(t, PositionEqual, report.YearDetail.Position)
	assert.InDelta(t, 0, report.YearDetail.DiffPercent, 1e-9)
}

func TestBuildStockReportUnknownStock(t *testing.T) {
	_, err := BuildStockReport(lookupPanel(t), "999999", 2020)
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name      string
		series    []Point
		rate      float64
		direction Direction
	}{
		{name: "down", series: []Point{{2019, 20}, {2020, 10}}, rate: -50, direction: DirectionDown},
		{name: "flat", series: []Point{{2019, 3}, {2020, 9}, {2021, 3}}, rate: 0, direction: DirectionFlat},
		{name: "from zero", series: []Point{{2019, 0}, {2020, 4}}, rate: 0, direction: DirectionUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trendOf(tt.series)
			assert.InDelta(t, tt.rate, got.ChangeRate, 1e-9)
			assert.Equal(t, tt.direction, got.Direction)
		})
	}
}

func TestYearDetailBelowMean(t *testing.T) {
	d := yearDetail(2019, 10, []float64{10, 20, 30}, 20)
	assert.Equal(t, 1, d.Rank)
	assert.InDelta(t, 100.0/3, d.Percentile, 1e-9)
	assert.InDelta(t, -50, d.DiffPercent, 1e-9)
	assert.Equal(t, PositionBelow, d.Position)
}

func TestOverview(t *testing.T) {
	panel := lookupPanel(t)
	loaded := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	o := Overview(panel.Table, panel, "data.xlsx", loaded)
	assert.Equal(t, "data.xlsx", o.Source)
	assert.Equal(t, 4, o.Rows)
	assert.Equal(t, 3, o.Columns)
	assert.Equal(t, 2, o.Stocks)
	assert.Equal(t, 1, o.Dropped)
	assert.Equal(t, []int{2019, 2020, 2021}, o.Years)
	assert.Greater(t, o.MemoryKB, 0.0)
}
