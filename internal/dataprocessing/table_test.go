package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return NewTable(
		[]string{"code", "year", "score", "name"},
		[]Row{
			{Text("000002"), Number(2020), Number(3.5), Text("B")},
			{Text("000001"), Number(2019), Number(1), Text("A")},
			{Text("000001"), Number(2020), Null(), Text("A")},
			{Text("000003"), Null()},
		},
	)
}

func TestNewTablePadsShortRows(t *testing.T) {
	tbl := sampleTable()
	require.Equal(t, 4, tbl.Len())
	assert.Len(t, tbl.Row(3), 4)
	assert.True(t, tbl.Row(3)[3].IsNull())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "2020", Number(2020).String())
	assert.Equal(t, "3.25", Number(3.25).String())
	assert.Equal(t, "", Null().String())
	assert.Equal(t, "abc", Text("abc").String())
	assert.True(t, Number(0).IsNumber())
}

func TestValueFloat(t *testing.T) {
	f, ok := Text(" 12.5 ").Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	_, ok = Text("abc").Float()
	assert.False(t, ok)

	_, ok = Null().Float()
	assert.False(t, ok)
}

func TestFilterSelectSlice(t *testing.T) {
	tbl := sampleTable()
	codeIdx, _ := tbl.ColumnIndex("code")

	only1 := tbl.Filter(func(r Row) bool { return r[codeIdx].String() == "000001" })
	assert.Equal(t, 2, only1.Len())
	assert.Equal(t, tbl.Columns(), only1.Columns())

	proj := tbl.Select([]string{"score", "missing", "code"})
	assert.Equal(t, []string{"score", "code"}, proj.Columns())
	assert.Equal(t, "000002", proj.Row(0)[1].String())

	assert.Equal(t, 2, tbl.Slice(1, 3).Len())
	assert.Equal(t, 0, tbl.Slice(5, 10).Len())
	assert.Equal(t, 4, tbl.Slice(-1, 100).Len())
}

func TestSortByNullsLast(t *testing.T) {
	sorted := sampleTable().SortBy("year")
	years := sorted.Column("year")
	assert.Equal(t, 2019.0, years[0].Num)
	assert.Equal(t, 2020.0, years[1].Num)
	assert.True(t, years[3].IsNull())

	// stable: the two 2020 rows keep their relative order
	assert.Equal(t, "000002", sorted.Row(1)[0].String())
}

func TestUniqueAndNumericColumns(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, []string{"000001", "000002", "000003"}, tbl.UniqueStrings("code"))
	assert.Len(t, tbl.Unique("year"), 2)
	assert.Nil(t, tbl.Unique("missing"))

	assert.Equal(t, []string{"year", "score"}, tbl.NumericColumns())
	assert.Equal(t, []float64{3.5, 1}, tbl.Floats("score"))
}

func TestMatrixAndRecords(t *testing.T) {
	tbl := sampleTable().Slice(0, 1)
	assert.Equal(t, [][]interface{}{{"000002", 2020.0, 3.5, "B"}}, tbl.Matrix())
	assert.Equal(t, "B", tbl.Records()[0]["name"])
	assert.Greater(t, tbl.MemoryBytes(), int64(0))
}

func TestFingerprint(t *testing.T) {
	build := func(rows ...Row) *Table {
		return NewTable([]string{"code", "year"}, rows)
	}
	a := build(Row{Text("000002"), Number(2020)}, Row{Null(), Number(2019)})
	b := build(Row{Text("000002"), Number(2020)}, Row{Null(), Number(2019)})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "equal tables, separately built")

	changed := []*Table{
		build(Row{Text("000002"), Number(2021)}, Row{Null(), Number(2019)}),
		build(Row{Number(2), Number(2020)}, Row{Null(), Number(2019)}),
		build(Row{Text("000002"), Number(2020)}, Row{Text(""), Number(2019)}),
		build(Row{Text("000002"), Number(2020)}),
		NewTable([]string{"code", "year2"}, []Row{{Text("000002"), Number(2020)}, {Null(), Number(2019)}}),
	}
	for i, c := range changed {
		assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "variant %d", i)
	}
}
