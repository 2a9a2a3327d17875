package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "dtindex/internal/errors"
	api "dtindex/pkg/contracts/api/v1"
)

// NextReloader reports the next scheduled reload, zero when none
type NextReloader interface {
	Next() time.Time
}

// DatasetHandler serves the dataset overview and reload endpoints
type DatasetHandler struct {
	service      DatasetService
	schedule     NextReloader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a dataset handler. schedule may be nil.
func NewDatasetHandler(service DatasetService, schedule NextReloader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		schedule:     schedule,
		logger:       logger.With(slog.String("handler", "dataset")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes. guard wraps the reload endpoint.
func (h *DatasetHandler) Routes(guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetOverview)
	r.Get("/columns", h.GetColumns)
	r.With(guard).Post("/reload", h.Reload)
	return r
}

// GetOverview handles GET /api/dataset
func (h *DatasetHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, overview)
}

// GetColumns handles GET /api/dataset/columns
func (h *DatasetHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Columns(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Reload handles POST /api/dataset/reload
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "dataset reload requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("remote_addr", r.RemoteAddr))

	snap, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.ReloadResponse{
		Generation: snap.Generation,
		Source:     snap.Source,
		Rows:       snap.Raw.Len(),
		LoadedAt:   snap.LoadedAt,
		Duration:   snap.Duration.Round(time.Millisecond).String(),
		Warnings:   snap.Warnings,
	}
	if h.schedule != nil {
		if next := h.schedule.Next(); !next.IsZero() {
			resp.NextReload = &next
		}
	}
	render.JSON(w, r, resp)
}
