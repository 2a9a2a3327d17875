package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "dtindex/internal/errors"
	api "dtindex/pkg/contracts/api/v1"
)

// LookupHandler serves the single-stock dashboard
type LookupHandler struct {
	service      LookupService
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewLookupHandler creates a lookup handler
func NewLookupHandler(service LookupService, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *LookupHandler {
	return &LookupHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "lookup")),
		errorHandler: errorHandler,
	}
}

// Routes returns the lookup routes
func (h *LookupHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/stocks", h.GetStocks)
	r.Get("/years", h.GetYears)
	r.Get("/stocks/{code}", h.GetReport)
	return r
}

// GetStocks handles GET /api/lookup/stocks
func (h *LookupHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.Stocks(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"stocks": stocks,
		"count":  len(stocks),
	})
}

// GetYears handles GET /api/lookup/years
func (h *LookupHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, years)
}

// GetReport handles GET /api/lookup/stocks/{code}?year=
func (h *LookupHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	code, err := url.PathUnescape(chi.URLParam(r, "code"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("code", err))
		return
	}
	req := api.StockReportRequest{Code: code, Year: year}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Report(r.Context(), req.Code, req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.DebugContext(r.Context(), "stock report served",
		slog.String("stock", report.Stock),
		slog.Int("year", report.Year),
		slog.Int("warnings", len(report.Warnings)))
	render.JSON(w, r, report)
}
