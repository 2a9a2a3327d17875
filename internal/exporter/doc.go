// Package exporter writes explorer tables for download.
//
// CSVWriter produces UTF-8 CSV with a BOM so spreadsheet programs pick the
// right encoding; XLSXWriter produces a single-sheet workbook through a
// streaming excelize writer. Exporter chooses between them and names the
// file with a timestamp:
//
//	exp := exporter.New("股票数据_", logger)
//	w.Header().Set("Content-Disposition", "attachment; filename="+exp.FileName(exporter.FormatCSV))
//	err := exp.Write(w, exporter.FormatCSV, table)
package exporter
