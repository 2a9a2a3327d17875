package dataprocessing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestSheetsSourceLoad(t *testing.T) {
	var gotPath, gotRender string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Sheet1!A1:C3",
			"majorDimension": "ROWS",
			"values": [
				["股票代码", "年份", "数字化转型指数"],
				[1, 2019, 12.5],
				["600000", 2020, ""]
			]
		}`))
	}))
	defer srv.Close()

	src := &SheetsSource{
		SpreadsheetID: "sheet-123",
		Range:         "Sheet1",
		Options: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithoutAuthentication(),
		},
	}

	tbl, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.Contains(gotPath, "sheet-123"), gotPath)
	assert.Equal(t, "UNFORMATTED_VALUE", gotRender)
	assert.Equal(t, []string{"股票代码", "年份", "数字化转型指数"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, Number(1), tbl.Row(0)[0])
	assert.Equal(t, Text("600000"), tbl.Row(1)[0], "string cells stay text")
	assert.True(t, tbl.Row(1)[2].IsNull())
	assert.Equal(t, "sheets:sheet-123!Sheet1", src.Name())
}

func TestSheetsSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	src := &SheetsSource{
		SpreadsheetID: "missing",
		Range:         "Sheet1",
		Options:       []option.ClientOption{option.WithEndpoint(srv.URL + "/"), option.WithoutAuthentication()},
	}
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestSheetRows(t *testing.T) {
	rows := sheetRows([][]interface{}{{"a", 2.0, true, nil, 3.5}})
	assert.Equal(t, [][]string{{"a", "2", "TRUE", "", "3.5"}}, rows)
}
