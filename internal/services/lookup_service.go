package services

import (
	"context"
	"fmt"
	"log/slog"

	"dtindex/internal/analytics"
	"dtindex/internal/cache"
	"dtindex/internal/config"
	"dtindex/internal/dataprocessing"
	"dtindex/internal/infrastructure"
)

// YearOptions are the bounds of the lookup year selector
type YearOptions struct {
	Min       int   `json:"min"`
	Max       int   `json:"max"`
	Default   int   `json:"default"`
	Available []int `json:"available"`
}

// LookupService answers single-stock queries
type LookupService struct {
	datasets DatasetProvider
	years    config.LookupConfig
	cache    *cache.QueryCache
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewLookupService creates a lookup service
func NewLookupService(datasets DatasetProvider, years config.LookupConfig, qc *cache.QueryCache, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *LookupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{
		datasets: datasets,
		years:    years,
		cache:    qc,
		metrics:  metrics,
		logger:   logger.With("component", "lookup"),
	}
}

func (s *LookupService) panel(ctx context.Context) (*Snapshot, *dataprocessing.LookupPanel, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	panel, err := snap.LookupPanel()
	if err != nil {
		return nil, nil, err
	}
	return snap, panel, nil
}

// Stocks lists the stock codes of the lookup view
func (s *LookupService) Stocks(ctx context.Context) ([]string, error) {
	_, panel, err := s.panel(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(ctx, "lookup_stocks")
	return panel.Stocks, nil
}

// Years returns the configured year bounds and the years present in the data
func (s *LookupService) Years(ctx context.Context) (*YearOptions, error) {
	_, panel, err := s.panel(ctx)
	if err != nil {
		return nil, err
	}
	return &YearOptions{
		Min:       s.years.MinYear,
		Max:       s.years.MaxYear,
		Default:   s.years.DefaultYear,
		Available: panel.Years,
	}, nil
}

// Report builds the lookup view for a stock. A zero year means the default
// year. The code is normalised the same way the data is, so "1" finds
// "000001".
func (s *LookupService) Report(ctx context.Context, stock string, year int) (*analytics.StockReport, error) {
	if year == 0 {
		year = s.years.DefaultYear
	}
	if year < s.years.MinYear || year > s.years.MaxYear {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutOfRange, year, s.years.MinYear, s.years.MaxYear)
	}
	code := dataprocessing.NormalizeStockCode(dataprocessing.Text(stock))
	if code == "" {
		return nil, fmt.Errorf("%w: empty stock code", ErrInvalidInput)
	}

	snap, panel, err := s.panel(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(ctx, "lookup_report")

	key := cache.Key{View: "lookup_report", Dataset: snap.Fingerprint, Params: fmt.Sprintf("%s@%d", code, year)}
	return cache.Fetch(ctx, s.cache, key, func(context.Context) (*analytics.StockReport, error) {
		return analytics.BuildStockReport(panel, code, year)
	})
}
