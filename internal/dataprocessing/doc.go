// Package dataprocessing reads the company-year panel and prepares it for the
// dashboards.
//
// # Sources
//
// A Source yields a raw Table: XLSXSource (first or named worksheet),
// CSVSource (UTF-8, BOM tolerated) and SheetsSource (Google Sheets range).
// FallbackSource tries several in order, which is how a CSV export stands in
// for a missing workbook.
//
// # Preparation
//
// DetectColumns guesses the stock, year and index columns from header
// keywords; CleanLookup drops rows missing any of them and pads numeric stock
// codes to six digits. PrepareExplorer instead works against a fixed Schema of
// column names and only coerces types.
//
//	src, _ := dataprocessing.FileSource("合并后的文件.xlsx", "", logger)
//	raw, err := src.Load(ctx)
//	det, _ := dataprocessing.DetectColumns(raw.Columns())
//	panel, err := dataprocessing.CleanLookup(raw, det)
package dataprocessing
