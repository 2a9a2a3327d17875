package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/analytics"
	"dtindex/internal/services"
)

func newLookupServer(svc *MockLookupService) http.Handler {
	h := NewLookupHandler(svc, testValidator, testLogger(), NewErrorHandler(testLogger(), false))
	return h.Routes()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestLookupHandler_GetReport(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setupMock  func(*MockLookupService)
		wantStatus int
		wantType   string
	}{
		{
			name: "report with year",
			path: "/stocks/000001?year=2019",
			setupMock: func(m *MockLookupService) {
				m.On("Report", "000001", 2019).Return(&analytics.StockReport{Stock: "000001", Year: 2019}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "default year",
			path: "/stocks/1",
			setupMock: func(m *MockLookupService) {
				m.On("Report", "1", 0).Return(&analytics.StockReport{Stock: "000001", Year: 2020}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non numeric year",
			path:       "/stocks/000001?year=last",
			setupMock:  func(m *MockLookupService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation",
		},
		{
			name:       "invalid code",
			path:       "/stocks/00%2A01",
			setupMock:  func(m *MockLookupService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation",
		},
		{
			name: "unknown stock",
			path: "/stocks/999999",
			setupMock: func(m *MockLookupService) {
				m.On("Report", "999999", 0).Return(nil, fmt.Errorf("%w: 999999", analytics.ErrStockNotFound))
			},
			wantStatus: http.StatusNotFound,
			wantType:   "/errors/data/stock-not-found",
		},
		{
			name: "year out of range",
			path: "/stocks/000001?year=2010",
			setupMock: func(m *MockLookupService) {
				m.On("Report", "000001", 2010).Return(nil, services.ErrYearOutOfRange)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation",
		},
		{
			name: "lookup view unavailable",
			path: "/stocks/000001",
			setupMock: func(m *MockLookupService) {
				m.On("Report", "000001", 0).Return(nil, fmt.Errorf("%w: no stock column", services.ErrLookupUnavailable))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "/errors/data/unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLookupService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			newLookupServer(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decode(t, rec)["type"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLookupHandler_StocksAndYears(t *testing.T) {
	svc := new(MockLookupService)
	svc.On("Stocks").Return([]string{"000001", "000002"}, nil)
	svc.On("Years").Return(&services.YearOptions{Min: 2019, Max: 2020, Default: 2020, Available: []int{2019, 2020}}, nil)
	srv := newLookupServer(svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stocks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stocks":["000001","000002"],"count":2}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/years", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"min":2019,"max":2020,"default":2020,"available":[2019,2020]}`, rec.Body.String())
}
