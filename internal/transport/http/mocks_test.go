package http

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"dtindex/internal/analytics"
	"dtindex/internal/dataprocessing"
	"dtindex/internal/middleware"
	"dtindex/internal/pagination"
	"dtindex/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testValidator = middleware.NewValidator()

type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Overview(ctx context.Context) (*analytics.DatasetOverview, error) {
	args := m.Called()
	o, _ := args.Get(0).(*analytics.DatasetOverview)
	return o, args.Error(1)
}

func (m *MockDatasetService) Columns(ctx context.Context) (*services.ColumnReport, error) {
	args := m.Called()
	c, _ := args.Get(0).(*services.ColumnReport)
	return c, args.Error(1)
}

func (m *MockDatasetService) Reload(ctx context.Context) (*services.Snapshot, error) {
	args := m.Called()
	s, _ := args.Get(0).(*services.Snapshot)
	return s, args.Error(1)
}

type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) Stocks(ctx context.Context) ([]string, error) {
	args := m.Called()
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}

func (m *MockLookupService) Years(ctx context.Context) (*services.YearOptions, error) {
	args := m.Called()
	y, _ := args.Get(0).(*services.YearOptions)
	return y, args.Error(1)
}

func (m *MockLookupService) Report(ctx context.Context, stock string, year int) (*analytics.StockReport, error) {
	args := m.Called(stock, year)
	r, _ := args.Get(0).(*analytics.StockReport)
	return r, args.Error(1)
}

type MockExplorerService struct {
	mock.Mock
}

func (m *MockExplorerService) Options(ctx context.Context, search string) (*analytics.Options, error) {
	args := m.Called(search)
	o, _ := args.Get(0).(*analytics.Options)
	return o, args.Error(1)
}

func (m *MockExplorerService) Overview(ctx context.Context, f analytics.Filter) (*services.Result[analytics.FilterOverview], error) {
	args := m.Called(f)
	r, _ := args.Get(0).(*services.Result[analytics.FilterOverview])
	return r, args.Error(1)
}

func (m *MockExplorerService) Records(ctx context.Context, f analytics.Filter, allColumns bool, p pagination.Params) (*services.Result[analytics.RecordsPage], error) {
	args := m.Called(f, allColumns, p)
	r, _ := args.Get(0).(*services.Result[analytics.RecordsPage])
	return r, args.Error(1)
}

func (m *MockExplorerService) ExportTable(ctx context.Context, f analytics.Filter, allColumns bool) (*dataprocessing.Table, error) {
	args := m.Called(f, allColumns)
	t, _ := args.Get(0).(*dataprocessing.Table)
	return t, args.Error(1)
}

func (m *MockExplorerService) Trend(ctx context.Context, f analytics.Filter) (*services.Result[[]analytics.YearStat], error) {
	args := m.Called(f)
	r, _ := args.Get(0).(*services.Result[[]analytics.YearStat])
	return r, args.Error(1)
}

func (m *MockExplorerService) Ranking(ctx context.Context, f analytics.Filter) (*services.Result[*analytics.Ranking], error) {
	args := m.Called(f)
	r, _ := args.Get(0).(*services.Result[*analytics.Ranking])
	return r, args.Error(1)
}

func (m *MockExplorerService) Comparison(ctx context.Context, f analytics.Filter) (*services.Result[*analytics.Comparison], error) {
	args := m.Called(f)
	r, _ := args.Get(0).(*services.Result[*analytics.Comparison])
	return r, args.Error(1)
}

func (m *MockExplorerService) Metrics(ctx context.Context) ([]string, error) {
	args := m.Called()
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}

func (m *MockExplorerService) Metric(ctx context.Context, f analytics.Filter, metric string) (*services.Result[*analytics.MetricAnalysis], error) {
	args := m.Called(f, metric)
	r, _ := args.Get(0).(*services.Result[*analytics.MetricAnalysis])
	return r, args.Error(1)
}

func (m *MockExplorerService) Statistics(ctx context.Context, f analytics.Filter, columns []string) (*services.Result[*analytics.Statistics], error) {
	args := m.Called(f, columns)
	r, _ := args.Get(0).(*services.Result[*analytics.Statistics])
	return r, args.Error(1)
}
