package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dtindex/internal/analytics"
	"dtindex/internal/shared/testutil"
)

func writePanel(t *testing.T) string {
	t.Helper()
	t.Setenv("DTI_CONFIG_FILE", "")
	return testutil.WritePanelCSV(t, t.TempDir(), "panel.csv")
}

func TestRunStockReport(t *testing.T) {
	file := writePanel(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", file, "-stock", "1", "-year", "2019"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var report analytics.StockReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "000001", report.Stock)
	assert.Equal(t, 2019, report.Year)
}

func TestRunUnknownStock(t *testing.T) {
	file := writePanel(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", file, "-stock", "999999"}, &stdout, &stderr)
	assert.ErrorIs(t, err, analytics.ErrStockNotFound)
	assert.Empty(t, stdout.String())
}

func TestRunOverview(t *testing.T) {
	file := writePanel(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-file", file}, &stdout, &stderr))

	var overview analytics.DatasetOverview
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &overview))
	assert.Equal(t, 4, overview.Rows)
}

func TestRunExportCSV(t *testing.T) {
	file := writePanel(t)
	out := filepath.Join(t.TempDir(), "selection.csv")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(),
		[]string{"-file", file, "-stocks", "2", "-years", "2019,2020", "-export", out}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "wrote 2 rows")

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	text := strings.TrimPrefix(string(content), "﻿")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "数字化转型指数")
	assert.Contains(t, lines[1], "万科A")
}

func TestRunExportXLSXIntoDirectory(t *testing.T) {
	file := writePanel(t)
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-file", file, "-export", dir}, &stdout, &stderr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "股票数据_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".csv"))

	xlsx := filepath.Join(dir, "all.xlsx")
	require.NoError(t, run(context.Background(), []string{"-file", file, "-export", xlsx, "-all-columns"}, &stdout, &stderr))
	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Contains(t, rows[0], "人工智能词频")
}

func TestRunRejectsBadInput(t *testing.T) {
	file := writePanel(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "stock and export", args: []string{"-file", file, "-stock", "1", "-export", "x.csv"}, want: errUsage},
		{name: "positional argument", args: []string{"-file", file, "extra"}, want: errUsage},
		{name: "help", args: []string{"-h"}, want: flag.ErrHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", file, "-years", "later", "-export", "x.csv"}, &stdout, &stderr)
	assert.ErrorContains(t, err, `invalid year "later"`)

	err = run(context.Background(), []string{"-file", file, "-export", filepath.Join(t.TempDir(), "x.pdf")}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
