// Package api contains the v1 request and response contracts of the
// dtindex HTTP API. Requests are bound from query strings and checked with
// go-playground/validator tags.
package api

import "time"

// ExplorerFilter is the shared selection of every explorer endpoint. Lists
// may be repeated (?stocks=a&stocks=b) or comma separated (?stocks=a,b).
type ExplorerFilter struct {
	Stocks     []string `json:"stocks" query:"stocks" validate:"omitempty,dive,required,max=32"`
	Years      []int    `json:"years" query:"years" validate:"omitempty,dive,gte=1900,lte=2100"`
	Industries []string `json:"industries" query:"industries" validate:"omitempty,dive,required,max=128"`
}

// StockReportRequest selects the single-stock lookup view
type StockReportRequest struct {
	Code string `json:"code" param:"code" validate:"required,stockcode"`
	Year int    `json:"year" query:"year" validate:"omitempty,gte=1900,lte=2100"`
}

// OptionsRequest narrows the stock selector
type OptionsRequest struct {
	Search string `json:"search" query:"search" validate:"omitempty,max=64"`
}

// RecordsRequest selects a page of the explorer records table
type RecordsRequest struct {
	ExplorerFilter
	Page       int  `json:"page" query:"page" validate:"omitempty,min=1"`
	PageSize   int  `json:"page_size" query:"page_size" validate:"omitempty,oneof=10 20 50 100"`
	AllColumns bool `json:"all_columns" query:"all_columns"`
}

// ExportRequest selects the explorer records download
type ExportRequest struct {
	ExplorerFilter
	Format     string `json:"format" query:"format" validate:"omitempty,oneof=csv xlsx"`
	AllColumns bool   `json:"all_columns" query:"all_columns"`
}

// MetricRequest analyses one auxiliary numeric column
type MetricRequest struct {
	ExplorerFilter
	Metric string `json:"metric" param:"metric" validate:"required,max=128"`
}

// StatsRequest describes the given columns of a selection
type StatsRequest struct {
	ExplorerFilter
	Columns []string `json:"columns" query:"columns" validate:"omitempty,max=20,dive,required,max=128"`
}

// ReloadResponse reports the generation a reload produced
type ReloadResponse struct {
	Generation uint64     `json:"generation"`
	Source     string     `json:"source"`
	Rows       int        `json:"rows"`
	LoadedAt   time.Time  `json:"loaded_at"`
	Duration   string     `json:"duration"`
	Warnings   []string   `json:"warnings,omitempty"`
	NextReload *time.Time `json:"next_reload,omitempty"`
}
