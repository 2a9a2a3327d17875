package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"dtindex/internal/analytics"
	"dtindex/internal/config"
	"dtindex/internal/dataprocessing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSource serves a fixed table and counts loads
type stubSource struct {
	mu    sync.Mutex
	table *dataprocessing.Table
	err   error
	delay time.Duration
	loads atomic.Int32
}

func (s *stubSource) Name() string { return "stub.xlsx" }

func (s *stubSource) Load(ctx context.Context) (*dataprocessing.Table, error) {
	s.loads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table, s.err
}

func (s *stubSource) set(t *dataprocessing.Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table, s.err = t, err
}

var errSourceDown = errors.New("source down")

// mockPublisher records dataset events
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) BroadcastUpdate(updateType, subtype, action string, data interface{}) {
	m.Called(updateType, subtype, action, data)
}

// panelTable carries both the lookup columns and the explorer schema
func panelTable() *dataprocessing.Table {
	n := dataprocessing.Number
	s := dataprocessing.Text
	return dataprocessing.NewTable(
		[]string{"股票代码简称", "企业名称", "年份", "行业名称_文件1", "数字化转型指数", "人工智能词频"},
		[]dataprocessing.Row{
			{n(1), s("平安银行"), n(2019), s("金融"), n(10), n(1)},
			{n(1), s("平安银行"), n(2020), s("金融"), n(20), n(3)},
			{n(2), s("万科A"), n(2019), s("地产"), n(30), n(5)},
			{n(2), s("万科A"), n(2020), s("地产"), n(40), n(7)},
		},
	)
}

func testDatasetOptions() DatasetOptions {
	cfg := config.Default()
	return DatasetOptions{
		Schema:      SchemaFrom(cfg.Explorer),
		Limits:      analytics.Limits{MaxStocks: 2},
		LoadTimeout: time.Second,
		Logger:      discardLogger(),
	}
}

func newTestDataset(src *stubSource) *DatasetService {
	return NewDatasetService(StaticSource(src), testDatasetOptions())
}
