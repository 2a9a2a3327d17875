// Package services implements the business logic between the HTTP handlers
// and the analytics package.
//
// # Dataset lifecycle
//
// DatasetService owns the only shared state: the current Snapshot. The first
// request loads the dataset; concurrent callers wait on the same load through
// a singleflight group. Reload replaces the snapshot, bumps its generation,
// clears the query cache and publishes a "dataset reloaded" event. A failed
// reload keeps serving the previous snapshot.
//
// # Views
//
//   - LookupService: stock list, year bounds and the single-stock report
//   - ExplorerService: options, overview, records, trend, ranking,
//     comparison, metrics and statistics over a Filter
//   - HealthService: health, readiness, liveness and version
//
// Explorer answers are wrapped in Result, which carries the generation the
// answer was computed from and warnings such as an empty selection. Results
// are cached per generation when a Redis address is configured.
package services
