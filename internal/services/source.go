package services

import (
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"

	"dtindex/internal/analytics"
	"dtindex/internal/config"
	"dtindex/internal/dataprocessing"
)

// BuildSource assembles the dataset source described by cfg. For files, the
// configured names are tried in order; names that cannot be found are
// returned as warnings.
func BuildSource(cfg config.DatasetConfig, logger *slog.Logger) (dataprocessing.Source, []string, error) {
	switch strings.ToLower(cfg.Source) {
	case config.SourceSheets:
		var opts []option.ClientOption
		switch {
		case cfg.CredentialsFile != "":
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		case cfg.APIKey != "":
			opts = append(opts, option.WithAPIKey(cfg.APIKey))
		}
		return &dataprocessing.SheetsSource{
			SpreadsheetID: cfg.SpreadsheetID,
			Range:         cfg.SheetRange,
			Options:       opts,
			Logger:        logger,
		}, nil, nil

	case config.SourceFile, "":
		found, missing := cfg.ResolveFiles()
		var warnings []string
		for _, name := range missing {
			warnings = append(warnings, fmt.Sprintf("data file %s not found", name))
		}
		if len(found) == 0 {
			return nil, warnings, fmt.Errorf("%w: none of %v found", config.ErrDataFileNotFound, cfg.Files)
		}

		sources := make([]dataprocessing.Source, 0, len(found))
		for _, path := range found {
			src, err := dataprocessing.FileSource(path, cfg.Sheet, logger)
			if err != nil {
				return nil, warnings, err
			}
			sources = append(sources, src)
		}
		return &dataprocessing.FallbackSource{Sources: sources, Logger: logger}, warnings, nil

	default:
		return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
}

// SchemaFrom maps the explorer column names of the configuration
func SchemaFrom(cfg config.ExplorerConfig) dataprocessing.Schema {
	return dataprocessing.Schema{
		Stock:           cfg.StockColumn,
		Company:         cfg.CompanyColumn,
		Year:            cfg.YearColumn,
		Industry:        cfg.IndustryColumn,
		Index:           cfg.IndexColumn,
		FrequencyMarker: cfg.FrequencyMarker,
	}
}

// LimitsFrom maps the explorer limits of the configuration
func LimitsFrom(cfg config.ExplorerConfig) analytics.Limits {
	return analytics.Limits{
		MaxStocks:        cfg.MaxStocks,
		DefaultYearCount: cfg.DefaultYearCount,
		SearchFallback:   cfg.SearchFallback,
		RankingSize:      cfg.RankingSize,
		MaxKeyColumns:    cfg.MaxKeyColumns,
	}
}
