package http

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dtindex/internal/analytics"
	apierrors "dtindex/internal/errors"
	"dtindex/internal/exporter"
	"dtindex/internal/pagination"
	api "dtindex/pkg/contracts/api/v1"
)

// ExplorerHandler serves the multi-filter dashboard
type ExplorerHandler struct {
	service      ExplorerService
	exporter     *exporter.Exporter
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExplorerHandler creates an explorer handler
func NewExplorerHandler(service ExplorerService, exp *exporter.Exporter, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExplorerHandler {
	return &ExplorerHandler{
		service:      service,
		exporter:     exp,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "explorer")),
		errorHandler: errorHandler,
	}
}

// Routes returns the explorer routes
func (h *ExplorerHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/options", h.GetOptions)
		r.Get("/overview", h.GetOverview)
		r.Get("/records", h.GetRecords)
		r.Get("/trend", h.GetTrend)
		r.Get("/ranking", h.GetRanking)
		r.Get("/comparison", h.GetComparison)
		r.Get("/metrics", h.GetMetrics)
		r.Get("/metrics/{metric}", h.GetMetric)
		r.Get("/stats", h.GetStats)
	})
	r.Get("/records/export", h.ExportRecords)
	return r
}

// filter binds and validates the shared selection
func (h *ExplorerHandler) filter(w http.ResponseWriter, r *http.Request) (analytics.Filter, bool) {
	f, err := bindFilter(r.URL.Query())
	if err == nil {
		err = h.validator.ValidateStruct(f)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return analytics.Filter{}, false
	}
	return toFilter(f), true
}

// GetOptions handles GET /api/explorer/options?search=
func (h *ExplorerHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	req := api.OptionsRequest{Search: r.URL.Query().Get("search")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	opts, err := h.service.Options(r.Context(), req.Search)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, opts)
}

// GetOverview handles GET /api/explorer/overview
func (h *ExplorerHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	res, err := h.service.Overview(r.Context(), f)
	h.respond(w, r, res, err)
}

// GetRecords handles GET /api/explorer/records
func (h *ExplorerHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	req, err := bindRecords(r.URL.Query())
	if err == nil {
		err = h.validator.ValidateStruct(req)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	p := pagination.Params{Page: req.Page, PageSize: req.PageSize}
	res, err := h.service.Records(r.Context(), toFilter(req.ExplorerFilter), req.AllColumns, p)
	h.respond(w, r, res, err)
}

// ExportRecords handles GET /api/explorer/records/export?format=csv|xlsx.
// The whole filtered display table is written, not one page.
func (h *ExplorerHandler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	req, err := bindExport(r.URL.Query())
	if err == nil {
		err = h.validator.ValidateStruct(req)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, err := h.service.ExportTable(r.Context(), toFilter(req.ExplorerFilter), req.AllColumns)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Buffer so a write failure can still be reported as a problem
	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, format, table); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	name := h.exporter.FileName(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", contentDisposition(name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
		return
	}
	h.logger.InfoContext(r.Context(), "records exported",
		slog.String("format", string(format)),
		slog.String("file", name),
		slog.Int("rows", table.Len()))
}

// contentDisposition names the attachment. Non-ASCII names get an RFC 5987
// filename* parameter plus an ASCII fallback.
func contentDisposition(name string) string {
	if isASCII(name) {
		return mime.FormatMediaType("attachment", map[string]string{"filename": name})
	}
	fallback := "export"
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			fallback += name[i:]
			break
		}
	}
	return `attachment; filename="` + fallback + `"; filename*=UTF-8''` + url.PathEscape(name)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// GetTrend handles GET /api/explorer/trend
func (h *ExplorerHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	res, err := h.service.Trend(r.Context(), f)
	h.respond(w, r, res, err)
}

// GetRanking handles GET /api/explorer/ranking
func (h *ExplorerHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	res, err := h.service.Ranking(r.Context(), f)
	h.respond(w, r, res, err)
}

// GetComparison handles GET /api/explorer/comparison
func (h *ExplorerHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	res, err := h.service.Comparison(r.Context(), f)
	h.respond(w, r, res, err)
}

// GetMetrics handles GET /api/explorer/metrics
func (h *ExplorerHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"metrics": metrics})
}

// GetMetric handles GET /api/explorer/metrics/{metric}
func (h *ExplorerHandler) GetMetric(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	metric, err := url.PathUnescape(chi.URLParam(r, "metric"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("metric", err))
		return
	}
	req := api.MetricRequest{Metric: metric}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	res, err := h.service.Metric(r.Context(), f, req.Metric)
	h.respond(w, r, res, err)
}

// GetStats handles GET /api/explorer/stats?columns=
func (h *ExplorerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filter(w, r)
	if !ok {
		return
	}
	req := api.StatsRequest{Columns: queryList(r.URL.Query(), "columns")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	res, err := h.service.Statistics(r.Context(), f, req.Columns)
	h.respond(w, r, res, err)
}

func (h *ExplorerHandler) respond(w http.ResponseWriter, r *http.Request, res interface{}, err error) {
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}
