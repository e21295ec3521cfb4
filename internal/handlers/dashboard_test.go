// internal/handlers/dashboard_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/handlers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func TestDashboardHandler_GetDashboard(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockDashboardService)
		expectedStatus int
	}{
		{
			name:  "cached_summary",
			query: "",
			setupMocks: func(m *mocks.MockDashboardService) {
				m.EXPECT().Summary(gomock.Any()).Return(&ports.Dashboard{ProductCount: 4, SaleCount: 2, Revenue: "31.50"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "forced_refresh",
			query: "?refresh=true",
			setupMocks: func(m *mocks.MockDashboardService) {
				m.EXPECT().Refresh(gomock.Any()).Return(&ports.Dashboard{ProductCount: 4, SaleCount: 2, Revenue: "31.50"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "unexpected_failure",
			query: "",
			setupMocks: func(m *mocks.MockDashboardService) {
				m.EXPECT().Summary(gomock.Any()).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDashboard := mocks.NewMockDashboardService(ctrl)
			tt.setupMocks(mockDashboard)

			handler := handlers.NewDashboardHandler(mockDashboard, "en", helpers.TestLogger())

			rec := httptest.NewRecorder()
			handler.GetDashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, "Failed to load dashboard", decodeError(t, rec.Body.Bytes()).Error)
				return
			}

			assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
			var dash ports.Dashboard
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
			assert.Equal(t, 4, dash.ProductCount)
			assert.Equal(t, int64(2), dash.SaleCount)
			assert.Equal(t, "31.50", dash.Revenue)
		})
	}
}
