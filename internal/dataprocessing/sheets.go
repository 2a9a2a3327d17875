package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "dtindex/internal/errors"
)

// SheetsSource reads the dataset from a Google Sheets range. The first row of
// the range is the header.
type SheetsSource struct {
	SpreadsheetID string
	Range         string
	Options       []option.ClientOption
	Logger        *slog.Logger
}

// Name implements Source
func (s *SheetsSource) Name() string {
	return fmt.Sprintf("sheets:%s!%s", s.SpreadsheetID, s.Range)
}

// Load implements Source
func (s *SheetsSource) Load(ctx context.Context) (*Table, error) {
	svc, err := sheets.NewService(ctx, s.Options...)
	if err != nil {
		return nil, apperrors.NewSourceError("failed to create sheets service", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.NewSourceError("failed to fetch sheet values", err).
			WithContext("spreadsheet_id", s.SpreadsheetID).
			WithContext("range", s.Range)
	}

	table, err := buildTableWith(sheetRows(resp.Values), sheetsCellParser(resp.Values))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to build table", err).
			WithContext("spreadsheet_id", s.SpreadsheetID)
	}

	logger(s.Logger).DebugContext(ctx, "sheet fetched",
		slog.String("spreadsheet_id", s.SpreadsheetID),
		slog.String("range", s.Range),
		slog.Int("rows", table.Len()))
	return table, nil
}

// sheetRows converts API cell values into strings
func sheetRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
			case string:
				cells[j] = v
			case float64:
				cells[j] = FormatNumber(v)
			case bool:
				if v {
					cells[j] = "TRUE"
				} else {
					cells[j] = "FALSE"
				}
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}

// sheetsCellParser keeps cells the API returns as strings as text; with
// UNFORMATTED_VALUE numbers arrive as float64
func sheetsCellParser(values [][]interface{}) cellParser {
	return func(row, col int, text string) Value {
		if _, isText := values[row][col].(string); isText {
			return TextCell(text)
		}
		return ParseCell(text)
	}
}
