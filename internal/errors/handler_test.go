package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStockMissing = errors.New("stock not found")

func newTestHandler() *ErrorHandler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewErrorHandler(logger, false).
		Map(errStockMissing, http.StatusNotFound, TypeStockNotFound, "Stock Not Found")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedType string
	}{
		{
			name:         "mapped sentinel",
			err:          fmt.Errorf("lookup 000001: %w", errStockMissing),
			expectedCode: http.StatusNotFound,
			expectedType: TypeStockNotFound,
		},
		{
			name:         "api error",
			err:          InvalidParameter("year", errors.New("not a number")),
			expectedCode: http.StatusBadRequest,
			expectedType: TypeValidation,
		},
		{
			name:         "deadline exceeded",
			err:          fmt.Errorf("load: %w", context.DeadlineExceeded),
			expectedCode: http.StatusGatewayTimeout,
			expectedType: TypeTimeout,
		},
		{
			name:         "parsing app error",
			err:          NewParsingError("read sheet", errors.New("zip: not a valid zip file")),
			expectedCode: http.StatusUnprocessableEntity,
			expectedType: TypeDataUnreadable,
		},
		{
			name:         "untyped app error",
			err:          NewAppError(ErrorType("OTHER"), "refresh", errors.New("boom")),
			expectedCode: http.StatusInternalServerError,
			expectedType: TypeInternal,
		},
		{
			name:         "source app error",
			err:          NewSourceError("open workbook", errors.New("permission denied")),
			expectedCode: http.StatusServiceUnavailable,
			expectedType: TypeDataUnavailable,
		},
		{
			name:         "unknown error",
			err:          errors.New("boom"),
			expectedCode: http.StatusInternalServerError,
			expectedType: TypeInternal,
		},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/lookup/stocks/000001", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.expectedCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedType, body["type"])
			assert.Equal(t, float64(tt.expectedCode), body["status"])
			assert.Equal(t, "/api/lookup/stocks/000001", body["instance"])
		})
	}
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAPIErrorDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/explorer/records", nil)
	problem := newTestHandler().ErrorToProblem(NewValidationErrors([]ValidationError{
		{Field: "page_size", Message: "must be one of 10 20 50 100"},
	}), req)

	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "VALIDATION_FAILED", problem.Extensions["error_code"])
	assert.NotNil(t, problem.Extensions["details"])
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestHandler()
	handler := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeInternal)
	assert.NotContains(t, rec.Body.String(), "kaboom", "panic value is hidden without includeStack")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/dataset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}

func TestProblemDetailsMarshal(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc").
		WithExtension("type", "ignored")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeNotFound, body["type"], "standard fields win over extensions")
	assert.Equal(t, "abc", body["trace_id"])
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("disk gone")
	err := NewSourceError("open", cause).WithContext("file", "panel.xlsx")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[SOURCE] open: disk gone", err.Error())
	assert.Equal(t, "panel.xlsx", err.Context["file"])
}
