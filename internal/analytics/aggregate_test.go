package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/dataprocessing"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestYearlyTrend(t *testing.T) {
	e := testExplorer(t, Limits{})
	got, err := e.YearlyTrend(e.Apply(Filter{}))
	require.NoError(t, err)

	want := []YearStat{
		{Year: 2019, Mean: 20, Count: 2},
		{Year: 2020, Mean: 110.0 / 3, Count: 3},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("YearlyTrend mismatch (-want +got):\n%s", diff)
	}
}

func TestRanking(t *testing.T) {
	e := testExplorer(t, Limits{})

	t.Run("by stock", func(t *testing.T) {
		f := Filter{Stocks: []string{"A", "B", "C"}}
		r, err := e.Ranking(e.Apply(f), f)
		require.NoError(t, err)
		assert.Equal(t, RankByStock, r.By)
		want := []RankEntry{{"C", 50}, {"B", 35}, {"A", 15}}
		if diff := cmp.Diff(want, r.Entries, approx); diff != "" {
			t.Errorf("ranking mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("industry takes precedence", func(t *testing.T) {
		f := Filter{Stocks: []string{"A", "B"}, Industries: []string{"金融", "地产"}}
		r, err := e.Ranking(e.Apply(f), f)
		require.NoError(t, err)
		assert.Equal(t, RankByIndustry, r.By)
		require.Len(t, r.Entries, 2)
		assert.Equal(t, "地产", r.Entries[0].Label)
	})

	t.Run("single selection gives a hint", func(t *testing.T) {
		f := Filter{Stocks: []string{"A"}}
		r, err := e.Ranking(e.Apply(f), f)
		require.NoError(t, err)
		assert.Equal(t, RankByNone, r.By)
		assert.Empty(t, r.Entries)
		assert.NotEmpty(t, r.Hint)
	})

	t.Run("top n", func(t *testing.T) {
		small := testExplorer(t, Limits{RankingSize: 2})
		f := Filter{Stocks: []string{"A", "B", "C"}}
		r, err := small.Ranking(small.Apply(f), f)
		require.NoError(t, err)
		assert.Len(t, r.Entries, 2)
	})
}

func TestRankTies(t *testing.T) {
	groups := map[string]*group{
		"000003": {sum: 4, count: 2},
		"000001": {sum: 2, count: 1},
		"000002": {sum: 9, count: 3},
		"000004": {sum: 1, count: 1},
	}
	got := rank(groups, 3)
	want := []RankEntry{
		{Label: "000002", Mean: 3},
		{Label: "000001", Mean: 2},
		{Label: "000003", Mean: 2},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("rank mismatch (-want +got):\n%s", diff)
	}
}

func TestComparison(t *testing.T) {
	e := testExplorer(t, Limits{})

	f := Filter{Stocks: []string{"B", "A"}}
	c, err := e.Comparison(e.Apply(f), f)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, c.Stocks)
	want := []ComparisonPoint{
		{Stock: "A", Year: 2019, Mean: 10},
		{Stock: "A", Year: 2020, Mean: 20},
		{Stock: "B", Year: 2019, Mean: 30},
		{Stock: "B", Year: 2020, Mean: 40},
	}
	if diff := cmp.Diff(want, c.Points, approx); diff != "" {
		t.Errorf("comparison mismatch (-want +got):\n%s", diff)
	}

	single, err := e.Comparison(e.Apply(Filter{}), Filter{Stocks: []string{"A"}})
	require.NoError(t, err)
	assert.Empty(t, single.Points)
	assert.NotEmpty(t, single.Hint)
}

func TestAnalyzeMetric(t *testing.T) {
	e := testExplorer(t, Limits{})

	f := Filter{Stocks: []string{"A", "B"}}
	a, err := e.AnalyzeMetric(e.Apply(f), f, "总资产")
	require.NoError(t, err)
	assert.Equal(t, []YearStat{{Year: 2019, Mean: 150, Count: 2}, {Year: 2020, Mean: 160, Count: 2}}, a.Yearly)
	require.NotNil(t, a.Ranking)
	assert.Equal(t, "B", a.Ranking.Entries[0].Label)

	noStocks, err := e.AnalyzeMetric(e.Apply(Filter{}), Filter{}, "总资产")
	require.NoError(t, err)
	assert.Nil(t, noStocks.Ranking)

	_, err = e.AnalyzeMetric(e.Apply(Filter{}), Filter{}, "备注")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestIndexChartsWithoutIndexColumn(t *testing.T) {
	raw := dataprocessing.NewTable(
		[]string{"股票代码简称", "年份"},
		[]dataprocessing.Row{{dataprocessing.Text("A"), dataprocessing.Number(2020)}},
	)
	panel, err := dataprocessing.PrepareExplorer(raw, testSchema())
	require.NoError(t, err)
	e := NewExplorer(panel, Limits{})
	all := e.Apply(Filter{})

	_, err = e.YearlyTrend(all)
	assert.ErrorIs(t, err, ErrNoIndexColumn)
	_, err = e.Ranking(all, Filter{})
	assert.ErrorIs(t, err, ErrNoIndexColumn)
	_, err = e.Comparison(all, Filter{})
	assert.ErrorIs(t, err, ErrNoIndexColumn)

	o := e.Overview(all)
	assert.Nil(t, o.MeanIndex)
	assert.Equal(t, 2, o.Columns)
}
