// Package analytics computes the dashboard views over a prepared panel.
//
// BuildStockReport serves the single-stock lookup: the history of one stock,
// its summary statistics, the first-to-last trend and where the chosen year
// sits in that history.
//
// Explorer serves the multi-filter view. A Filter narrows the panel, and the
// filtered table then feeds Overview, Records, YearlyTrend, Ranking,
// Comparison, AnalyzeMetric and Statistics.
package analytics
