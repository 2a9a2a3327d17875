package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Source produces the raw dataset table
type Source interface {
	Load(ctx context.Context) (*Table, error)
	Name() string
}

// LoadResult is a loaded table together with the source it came from and the
// failures of any sources tried before it
type LoadResult struct {
	Table    *Table
	Source   string
	Warnings []string
}

// FallbackSource tries its sources in order and returns the first success
type FallbackSource struct {
	Sources []Source
	Logger  *slog.Logger
}

// Name implements Source
func (f *FallbackSource) Name() string {
	names := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, " | ")
}

// Load implements Source
func (f *FallbackSource) Load(ctx context.Context) (*Table, error) {
	res, err := f.LoadWithWarnings(ctx)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// LoadWithWarnings is Load that also reports which source was used and why
// earlier sources were skipped
func (f *FallbackSource) LoadWithWarnings(ctx context.Context) (*LoadResult, error) {
	if len(f.Sources) == 0 {
		return nil, errors.New("no dataset sources configured")
	}

	var errs []error
	var warnings []string
	for _, src := range f.Sources {
		table, err := src.Load(ctx)
		if err == nil {
			return &LoadResult{Table: table, Source: src.Name(), Warnings: warnings}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger(f.Logger).WarnContext(ctx, "dataset source failed, trying next",
			slog.String("source", src.Name()),
			slog.String("error", err.Error()))
		warnings = append(warnings, fmt.Sprintf("could not read %s: %v", src.Name(), err))
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("all dataset sources failed: %w", errors.Join(errs...))
}

// FileSource picks the reader for a path by its extension
func FileSource(path, sheet string, logger *slog.Logger) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return &XLSXSource{Path: path, Sheet: sheet, Logger: logger}, nil
	case ".csv", ".txt":
		return &CSVSource{Path: path, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported dataset file type: %s", path)
	}
}
