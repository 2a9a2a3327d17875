package dataprocessing

import (
	"fmt"
	"strings"
)

// Keyword lists used to recognise the lookup columns by header name. A column
// is assigned to the first role whose keywords it contains, in the order
// stock, year, index.
var (
	StockKeywords = []string{"股票", "代码", "code", "stock", "symbol"}
	YearKeywords  = []string{"年", "year", "时间", "time", "日期", "date"}
	IndexKeywords = []string{"转型", "数字化", "指数", "index", "digital", "transform"}
)

// Detection is the outcome of DetectColumns
type Detection struct {
	StockColumn string `json:"stock_column"`
	YearColumn  string `json:"year_column"`
	IndexColumn string `json:"index_column"`

	StockCandidates []string `json:"stock_candidates"`
	YearCandidates  []string `json:"year_candidates"`
	IndexCandidates []string `json:"index_candidates"`

	// Warnings name each role that fell back to a positional column
	Warnings []string `json:"warnings,omitempty"`
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// DetectColumns guesses the stock code, year and index columns from header
// names. Roles without a keyword match fall back to the first, second and
// third column respectively (or the first column when the table is narrower).
func DetectColumns(columns []string) (Detection, error) {
	if len(columns) == 0 {
		return Detection{}, ErrEmptyTable
	}

	d := Detection{
		StockCandidates: []string{},
		YearCandidates:  []string{},
		IndexCandidates: []string{},
	}
	for _, col := range columns {
		lower := strings.ToLower(col)
		switch {
		case containsAny(lower, StockKeywords):
			d.StockCandidates = append(d.StockCandidates, col)
		case containsAny(lower, YearKeywords):
			d.YearCandidates = append(d.YearCandidates, col)
		case containsAny(lower, IndexKeywords):
			d.IndexCandidates = append(d.IndexCandidates, col)
		}
	}

	positional := func(i int) string {
		if i < len(columns) {
			return columns[i]
		}
		return columns[0]
	}

	if len(d.StockCandidates) > 0 {
		d.StockColumn = d.StockCandidates[0]
	} else {
		d.StockColumn = columns[0]
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("no stock code column recognised, using the first column: %s", d.StockColumn))
	}

	if len(d.YearCandidates) > 0 {
		d.YearColumn = d.YearCandidates[0]
	} else {
		d.YearColumn = positional(1)
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("no year column recognised, using the second column: %s", d.YearColumn))
	}

	if len(d.IndexCandidates) > 0 {
		d.IndexColumn = d.IndexCandidates[0]
	} else {
		d.IndexColumn = positional(2)
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("no digital transformation index column recognised, using the third column: %s", d.IndexColumn))
	}

	return d, nil
}
