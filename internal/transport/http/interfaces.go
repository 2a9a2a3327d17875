package http

import (
	"context"

	"dtindex/internal/analytics"
	"dtindex/internal/dataprocessing"
	"dtindex/internal/pagination"
	"dtindex/internal/services"
)

// DatasetService is the dataset lifecycle as seen by the handlers
type DatasetService interface {
	Overview(ctx context.Context) (*analytics.DatasetOverview, error)
	Columns(ctx context.Context) (*services.ColumnReport, error)
	Reload(ctx context.Context) (*services.Snapshot, error)
}

// LookupService answers the single-stock view
type LookupService interface {
	Stocks(ctx context.Context) ([]string, error)
	Years(ctx context.Context) (*services.YearOptions, error)
	Report(ctx context.Context, stock string, year int) (*analytics.StockReport, error)
}

// ExplorerService answers the multi-filter view
type ExplorerService interface {
	Options(ctx context.Context, search string) (*analytics.Options, error)
	Overview(ctx context.Context, f analytics.Filter) (*services.Result[analytics.FilterOverview], error)
	Records(ctx context.Context, f analytics.Filter, allColumns bool, p pagination.Params) (*services.Result[analytics.RecordsPage], error)
	ExportTable(ctx context.Context, f analytics.Filter, allColumns bool) (*dataprocessing.Table, error)
	Trend(ctx context.Context, f analytics.Filter) (*services.Result[[]analytics.YearStat], error)
	Ranking(ctx context.Context, f analytics.Filter) (*services.Result[*analytics.Ranking], error)
	Comparison(ctx context.Context, f analytics.Filter) (*services.Result[*analytics.Comparison], error)
	Metrics(ctx context.Context) ([]string, error)
	Metric(ctx context.Context, f analytics.Filter, metric string) (*services.Result[*analytics.MetricAnalysis], error)
	Statistics(ctx context.Context, f analytics.Filter, columns []string) (*services.Result[*analytics.Statistics], error)
}

// StructValidator checks a bound request contract
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
