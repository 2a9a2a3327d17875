package http

import (
	"log/slog"
	"net/http"

	"dtindex/internal/analytics"
	"dtindex/internal/dataprocessing"
	apierrors "dtindex/internal/errors"
	"dtindex/internal/exporter"
	"dtindex/internal/pagination"
	"dtindex/internal/services"
)

// NewErrorHandler returns an error handler that knows the domain errors.
// Wrapped errors match by errors.Is, first mapping wins.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(logger, includeStack).
		Map(analytics.ErrStockNotFound, http.StatusNotFound, apierrors.TypeStockNotFound, "Stock Not Found").
		Map(services.ErrYearOutOfRange, http.StatusBadRequest, apierrors.TypeValidation, "Year Out Of Range").
		Map(services.ErrInvalidInput, http.StatusBadRequest, apierrors.TypeValidation, "Invalid Input").
		Map(analytics.ErrSelectionLimit, http.StatusBadRequest, apierrors.TypeValidation, "Too Many Stocks Selected").
		Map(analytics.ErrUnknownColumn, http.StatusBadRequest, apierrors.TypeUnknownColumn, "Unknown Column").
		Map(pagination.ErrInvalidPageSize, http.StatusBadRequest, apierrors.TypeValidation, "Invalid Page Size").
		Map(exporter.ErrUnsupportedFormat, http.StatusBadRequest, apierrors.TypeValidation, "Unsupported Export Format").
		Map(analytics.ErrNoIndexColumn, http.StatusUnprocessableEntity, apierrors.TypeUnknownColumn, "Index Column Missing").
		Map(services.ErrLookupUnavailable, http.StatusServiceUnavailable, apierrors.TypeDataUnavailable, "Lookup View Unavailable").
		Map(services.ErrExplorerUnavailable, http.StatusServiceUnavailable, apierrors.TypeDataUnavailable, "Explorer View Unavailable").
		Map(services.ErrDatasetUnavailable, http.StatusServiceUnavailable, apierrors.TypeDataUnavailable, "Dataset Unavailable").
		Map(dataprocessing.ErrEmptyTable, http.StatusUnprocessableEntity, apierrors.TypeDataUnreadable, "Dataset Unreadable")
}
