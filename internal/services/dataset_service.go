package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"dtindex/internal/analytics"
	"dtindex/internal/cache"
	"dtindex/internal/dataprocessing"
	"dtindex/internal/infrastructure"
	"dtindex/pkg/contracts/events"
)

// SourceFactory builds the dataset source for one load. It runs on every
// load so files that appear after startup are picked up by a reload.
type SourceFactory func() (dataprocessing.Source, []string, error)

// StaticSource returns a factory that always yields src
func StaticSource(src dataprocessing.Source) SourceFactory {
	return func() (dataprocessing.Source, []string, error) { return src, nil, nil }
}

// Publisher receives dataset lifecycle events
type Publisher interface {
	BroadcastUpdate(updateType, subtype, action string, data interface{})
}

// Snapshot is one loaded generation of the dataset with both dashboard
// views prepared from it. A view that could not be prepared is nil and its
// error is kept. Generation counts loads in this process; Fingerprint
// identifies the data and the settings the views were built with.
type Snapshot struct {
	Generation  uint64
	Fingerprint string
	Source      string
	LoadedAt    time.Time
	Duration    time.Duration
	Raw         *dataprocessing.Table
	Warnings    []string

	Lookup    *dataprocessing.LookupPanel
	LookupErr error

	Explorer    *analytics.Explorer
	ExplorerErr error
}

// LookupPanel returns the lookup view or the reason it is unavailable
func (s *Snapshot) LookupPanel() (*dataprocessing.LookupPanel, error) {
	if s.Lookup == nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, s.LookupErr)
	}
	return s.Lookup, nil
}

// ExplorerView returns the explorer view or the reason it is unavailable
func (s *Snapshot) ExplorerView() (*analytics.Explorer, error) {
	if s.Explorer == nil {
		return nil, fmt.Errorf("%w: %v", ErrExplorerUnavailable, s.ExplorerErr)
	}
	return s.Explorer, nil
}

// DatasetProvider hands out the current snapshot
type DatasetProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// DatasetService loads the dataset once and shares it between requests.
// Concurrent first requests and reloads collapse into a single load.
type DatasetService struct {
	newSource SourceFactory
	schema    dataprocessing.Schema
	limits    analytics.Limits
	timeout   time.Duration

	cache     *cache.QueryCache
	metrics   *infrastructure.BusinessMetrics
	publisher Publisher
	logger    *slog.Logger

	group      singleflight.Group
	mu         sync.RWMutex
	current    *Snapshot
	generation uint64
	now        func() time.Time
}

// DatasetOptions configures a DatasetService
type DatasetOptions struct {
	Schema      dataprocessing.Schema
	Limits      analytics.Limits
	LoadTimeout time.Duration
	Cache       *cache.QueryCache
	Metrics     *infrastructure.BusinessMetrics
	Publisher   Publisher
	Logger      *slog.Logger
}

// NewDatasetService creates the service. Nothing is read until the first
// Snapshot or Reload.
func NewDatasetService(newSource SourceFactory, opts DatasetOptions) *DatasetService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		newSource: newSource,
		schema:    opts.Schema,
		limits:    opts.Limits,
		timeout:   opts.LoadTimeout,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		logger:    logger.With("component", "dataset"),
		now:       time.Now,
	}
}

// SetPublisher sets the receiver of reload events
func (s *DatasetService) SetPublisher(p Publisher) { s.publisher = p }

// Current returns the loaded snapshot without triggering a load
func (s *DatasetService) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshot returns the loaded dataset, loading it on first use
func (s *DatasetService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.Current(); snap != nil {
		return snap, nil
	}
	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		if snap := s.Current(); snap != nil {
			return snap, nil
		}
		return s.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Reload reads the dataset again. On failure the previous snapshot stays in
// place and the error is returned.
func (s *DatasetService) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		failed := events.DatasetReloadFailed{Error: err.Error()}
		if prev := s.Current(); prev != nil {
			failed.Generation = prev.Generation
		}
		s.publish(events.ActionReloadFailed, failed)
		return nil, err
	}
	snap := v.(*Snapshot)

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "query cache invalidation failed", slog.String("error", err.Error()))
	}
	s.publish(events.ActionReloaded, events.DatasetReloaded{
		Generation: snap.Generation,
		Source:     snap.Source,
		Rows:       snap.Raw.Len(),
		Warnings:   len(snap.Warnings),
		LoadedAt:   snap.LoadedAt,
	})
	return snap, nil
}

func (s *DatasetService) publish(action string, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.BroadcastUpdate(events.UpdateDataset, events.UpdateDataset, action, data)
}

func (s *DatasetService) load(ctx context.Context) (*Snapshot, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx, span := infrastructure.StartSpan(ctx, "dataset.load")
	defer span.End()

	start := s.now()
	src, warnings, err := s.newSource()
	if err != nil {
		s.metrics.RecordDatasetLoad(ctx, "unresolved", 0, time.Since(start), err)
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "dataset source unavailable", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	span.SetAttributes(attribute.String("dataset.source", src.Name()))

	raw, used, loadWarnings, err := loadTable(ctx, src)
	duration := time.Since(start)
	s.metrics.RecordDatasetLoad(ctx, src.Name(), tableLen(raw), duration, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", src.Name()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	warnings = append(warnings, loadWarnings...)

	snap := &Snapshot{
		Fingerprint: s.fingerprint(raw),
		Source:      used,
		LoadedAt:    s.now(),
		Duration:    duration,
		Raw:         raw,
	}

	if det, err := dataprocessing.DetectColumns(raw.Columns()); err != nil {
		snap.LookupErr = err
	} else if panel, err := dataprocessing.CleanLookup(raw, det); err != nil {
		snap.LookupErr = err
	} else {
		snap.Lookup = panel
		warnings = append(warnings, det.Warnings...)
	}
	if snap.LookupErr != nil {
		warnings = append(warnings, fmt.Sprintf("lookup view unavailable: %v", snap.LookupErr))
	}

	if panel, err := dataprocessing.PrepareExplorer(raw, s.schema); err != nil {
		snap.ExplorerErr = err
		warnings = append(warnings, fmt.Sprintf("explorer view unavailable: %v", err))
	} else {
		snap.Explorer = analytics.NewExplorer(panel, s.limits)
		warnings = append(warnings, panel.Warnings...)
	}
	snap.Warnings = warnings

	s.mu.Lock()
	s.generation++
	snap.Generation = s.generation
	s.current = snap
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", used),
		slog.Int("rows", raw.Len()),
		slog.Int("columns", len(raw.Columns())),
		slog.Uint64("generation", snap.Generation),
		slog.String("fingerprint", snap.Fingerprint),
		slog.Duration("duration", duration),
		slog.Int("warnings", len(warnings)))
	return snap, nil
}

func (s *DatasetService) fingerprint(raw *dataprocessing.Table) string {
	settings := fmt.Sprintf("%x|%+v|%+v", raw.Fingerprint(), s.schema, s.limits)
	return fmt.Sprintf("%016x", xxhash.Sum64String(settings))
}

type warningLoader interface {
	LoadWithWarnings(ctx context.Context) (*dataprocessing.LoadResult, error)
}

func loadTable(ctx context.Context, src dataprocessing.Source) (*dataprocessing.Table, string, []string, error) {
	if wl, ok := src.(warningLoader); ok {
		res, err := wl.LoadWithWarnings(ctx)
		if err != nil {
			return nil, "", nil, err
		}
		return res.Table, res.Source, res.Warnings, nil
	}
	t, err := src.Load(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	return t, src.Name(), nil, nil
}

func tableLen(t *dataprocessing.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

// Overview describes the loaded dataset
func (s *DatasetService) Overview(ctx context.Context) (*analytics.DatasetOverview, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	o := analytics.Overview(snap.Raw, snap.Lookup, snap.Source, snap.LoadedAt)
	o.Warnings = snap.Warnings
	return &o, nil
}

// ColumnReport is the detected lookup columns with the explorer schema
type ColumnReport struct {
	Columns   []string                  `json:"columns"`
	Detection *dataprocessing.Detection `json:"detection,omitempty"`
	Schema    dataprocessing.Schema     `json:"schema"`
	Numeric   []string                  `json:"numeric_columns"`
	Warnings  []string                  `json:"warnings,omitempty"`
}

// Columns reports how the dataset's columns were interpreted
func (s *DatasetService) Columns(ctx context.Context) (*ColumnReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	r := &ColumnReport{
		Columns:  snap.Raw.Columns(),
		Schema:   s.schema,
		Numeric:  snap.Raw.NumericColumns(),
		Warnings: snap.Warnings,
	}
	if snap.Lookup != nil {
		d := snap.Lookup.Detection
		r.Detection = &d
	}
	return r, nil
}
