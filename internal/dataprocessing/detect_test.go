package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name      string
		columns   []string
		stock     string
		year      string
		index     string
		warnings  int
	}{
		{
			name:    "chinese headers",
			columns: []string{"企业名称", "股票代码", "年份", "数字化转型指数"},
			stock:   "股票代码",
			year:    "年份",
			index:   "数字化转型指数",
		},
		{
			name:    "english headers are case insensitive",
			columns: []string{"Symbol", "Fiscal YEAR", "Digital Score"},
			stock:   "Symbol",
			year:    "Fiscal YEAR",
			index:   "Digital Score",
		},
		{
			name:    "stock keyword wins over year keyword",
			columns: []string{"code_year", "Date", "DT Index"},
			stock:   "code_year",
			year:    "Date",
			index:   "DT Index",
		},
		{
			name:     "positional fallbacks",
			columns:  []string{"a", "b", "c", "d"},
			stock:    "a",
			year:     "b",
			index:    "c",
			warnings: 3,
		},
		{
			name:     "narrow table falls back to first column",
			columns:  []string{"only"},
			stock:    "only",
			year:     "only",
			index:    "only",
			warnings: 3,
		},
		{
			name:     "first candidate is chosen",
			columns:  []string{"股票代码", "证券代码", "year", "指数A", "指数B"},
			stock:    "股票代码",
			year:     "year",
			index:    "指数A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DetectColumns(tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.stock, d.StockColumn)
			assert.Equal(t, tt.year, d.YearColumn)
			assert.Equal(t, tt.index, d.IndexColumn)
			assert.Len(t, d.Warnings, tt.warnings)
		})
	}
}

func TestDetectColumnsCandidates(t *testing.T) {
	d, err := DetectColumns([]string{"股票代码", "证券代码", "年份", "指数A", "指数B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"股票代码", "证券代码"}, d.StockCandidates)
	assert.Equal(t, []string{"指数A", "指数B"}, d.IndexCandidates)
}

func TestDetectColumnsEmpty(t *testing.T) {
	_, err := DetectColumns(nil)
	assert.ErrorIs(t, err, ErrEmptyTable)
}
