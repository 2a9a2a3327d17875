package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"dtindex/internal/analytics"
	"dtindex/internal/cache"
	"dtindex/internal/dataprocessing"
	"dtindex/internal/infrastructure"
	"dtindex/internal/pagination"
)

// NoDataWarning is attached to results whose filter matched no rows
const NoDataWarning = "no data matches the selected filters"

// Result wraps an explorer answer with the dataset generation it was
// computed from and any warnings
type Result[T any] struct {
	Data       T        `json:"data"`
	Generation uint64   `json:"generation"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ExplorerService answers multi-filter queries
type ExplorerService struct {
	datasets DatasetProvider
	cache    *cache.QueryCache
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewExplorerService creates an explorer service
func NewExplorerService(datasets DatasetProvider, qc *cache.QueryCache, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ExplorerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExplorerService{
		datasets: datasets,
		cache:    qc,
		metrics:  metrics,
		logger:   logger.With("component", "explorer"),
	}
}

func (s *ExplorerService) explorer(ctx context.Context) (*Snapshot, *analytics.Explorer, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	e, err := snap.ExplorerView()
	if err != nil {
		return nil, nil, err
	}
	return snap, e, nil
}

// filterKey renders a filter canonically so equal selections share a cache entry
func filterKey(f analytics.Filter) string {
	stocks := append([]string(nil), f.Stocks...)
	sort.Strings(stocks)
	industries := append([]string(nil), f.Industries...)
	sort.Strings(industries)
	years := make([]string, len(f.Years))
	sorted := append([]int(nil), f.Years...)
	sort.Ints(sorted)
	for i, y := range sorted {
		years[i] = strconv.Itoa(y)
	}
	return fmt.Sprintf("s=%s|y=%s|i=%s",
		strings.Join(stocks, ","), strings.Join(years, ","), strings.Join(industries, ","))
}

// query validates the filter, applies it and runs compute on the filtered
// table through the query cache
func query[T any](ctx context.Context, s *ExplorerService, view string, f analytics.Filter, extra string,
	compute func(e *analytics.Explorer, t *dataprocessing.Table) (T, error)) (*Result[T], error) {

	snap, e, err := s.explorer(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(f); err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(ctx, view)

	key := cache.Key{View: view, Dataset: snap.Fingerprint, Params: filterKey(f) + "|" + extra}
	res, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*Result[T], error) {
		t := e.Apply(f)
		data, err := compute(e, t)
		if err != nil {
			return nil, err
		}
		res := &Result[T]{Data: data}
		if t.Len() == 0 {
			res.Warnings = append(res.Warnings, NoDataWarning)
			s.logger.DebugContext(ctx, "filter matched no rows", slog.String("view", view), slog.String("filter", filterKey(f)))
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	// entries are shared by every process serving the same data, each with
	// its own generation counter
	res.Generation = snap.Generation
	return res, nil
}

// Options returns the selector contents, stocks narrowed by search
func (s *ExplorerService) Options(ctx context.Context, search string) (*analytics.Options, error) {
	_, e, err := s.explorer(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(ctx, "options")
	o := e.Options(search)
	return &o, nil
}

// Overview returns the headline counts of a selection
func (s *ExplorerService) Overview(ctx context.Context, f analytics.Filter) (*Result[analytics.FilterOverview], error) {
	return query(ctx, s, "overview", f, "", func(e *analytics.Explorer, t *dataprocessing.Table) (analytics.FilterOverview, error) {
		return e.Overview(t), nil
	})
}

// Records returns one page of the records table
func (s *ExplorerService) Records(ctx context.Context, f analytics.Filter, allColumns bool, p pagination.Params) (*Result[analytics.RecordsPage], error) {
	p, err := p.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	extra := fmt.Sprintf("all=%t|p=%d|n=%d", allColumns, p.Page, p.PageSize)
	return query(ctx, s, "records", f, extra, func(e *analytics.Explorer, t *dataprocessing.Table) (analytics.RecordsPage, error) {
		return e.Records(t, allColumns, p), nil
	})
}

// ExportTable returns the whole display table of a selection for download
func (s *ExplorerService) ExportTable(ctx context.Context, f analytics.Filter, allColumns bool) (*dataprocessing.Table, error) {
	_, e, err := s.explorer(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(f); err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(ctx, "export")
	return e.DisplayTable(e.Apply(f), allColumns), nil
}

// Trend returns the yearly mean and count of the index
func (s *ExplorerService) Trend(ctx context.Context, f analytics.Filter) (*Result[[]analytics.YearStat], error) {
	return query(ctx, s, "trend", f, "", func(e *analytics.Explorer, t *dataprocessing.Table) ([]analytics.YearStat, error) {
		return e.YearlyTrend(t)
	})
}

// Ranking returns the industry or stock ranking of the index
func (s *ExplorerService) Ranking(ctx context.Context, f analytics.Filter) (*Result[*analytics.Ranking], error) {
	return query(ctx, s, "ranking", f, "", func(e *analytics.Explorer, t *dataprocessing.Table) (*analytics.Ranking, error) {
		return e.Ranking(t, f)
	})
}

// Comparison returns the per stock-year index means
func (s *ExplorerService) Comparison(ctx context.Context, f analytics.Filter) (*Result[*analytics.Comparison], error) {
	return query(ctx, s, "comparison", f, "", func(e *analytics.Explorer, t *dataprocessing.Table) (*analytics.Comparison, error) {
		return e.Comparison(t, f)
	})
}

// Metrics lists the auxiliary numeric columns
func (s *ExplorerService) Metrics(ctx context.Context) ([]string, error) {
	_, e, err := s.explorer(ctx)
	if err != nil {
		return nil, err
	}
	return e.Metrics(), nil
}

// Metric analyses one auxiliary column
func (s *ExplorerService) Metric(ctx context.Context, f analytics.Filter, metric string) (*Result[*analytics.MetricAnalysis], error) {
	return query(ctx, s, "metric", f, metric, func(e *analytics.Explorer, t *dataprocessing.Table) (*analytics.MetricAnalysis, error) {
		return e.AnalyzeMetric(t, f, metric)
	})
}

// Statistics describes the selected columns, the index by default
func (s *ExplorerService) Statistics(ctx context.Context, f analytics.Filter, columns []string) (*Result[*analytics.Statistics], error) {
	return query(ctx, s, "stats", f, strings.Join(columns, ","), func(e *analytics.Explorer, t *dataprocessing.Table) (*analytics.Statistics, error) {
		return e.Statistics(t, columns)
	})
}
