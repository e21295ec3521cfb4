// internal/handlers/settings_test.go
package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/handlers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func TestSettingsHandler_GetSettings(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSettings := mocks.NewMockSettingsService(ctrl)
	mockSettings.EXPECT().Get(gomock.Any()).Return(domain.AppSettings{Language: "fr", Currency: "EUR"}, nil)

	handler := handlers.NewSettingsHandler(mockSettings, "en", helpers.TestLogger())
	rec := httptest.NewRecorder()
	handler.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.SettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fr", resp.Language)
	assert.Equal(t, "Français", resp.LanguageName)
	assert.Equal(t, "EUR • Euro", resp.CurrencyDisplay)
	assert.Equal(t, []string{"en", "es", "fr", "ar"}, resp.SupportedLanguages)
	assert.Equal(t, []string{"USD", "EUR", "MXN", "MDH"}, resp.SupportedCurrencies)
}

func TestSettingsHandler_UpdateSettings(t *testing.T) {
	stored := domain.AppSettings{Language: "en", Currency: "USD"}

	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(*mocks.MockSettingsService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "updates_both",
			body: handlers.SettingsRequest{Language: "es", Currency: "MXN"},
			setupMocks: func(m *mocks.MockSettingsService) {
				m.EXPECT().Get(gomock.Any()).Return(stored, nil)
				m.EXPECT().Update(gomock.Any(), "es", "MXN").Return(domain.AppSettings{Language: "es", Currency: "MXN"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "omitted_currency_kept",
			body: handlers.SettingsRequest{Language: "ar"},
			setupMocks: func(m *mocks.MockSettingsService) {
				m.EXPECT().Get(gomock.Any()).Return(stored, nil)
				m.EXPECT().Update(gomock.Any(), "ar", "USD").Return(domain.AppSettings{Language: "ar", Currency: "USD"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unsupported_language",
			body: handlers.SettingsRequest{Language: "de"},
			setupMocks: func(m *mocks.MockSettingsService) {
				m.EXPECT().Get(gomock.Any()).Return(stored, nil)
				m.EXPECT().Update(gomock.Any(), "de", "USD").
					Return(domain.AppSettings{}, &services.UnsupportedSettingError{Key: domain.SettingLanguage, Value: "de"})
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Unsupported language: de",
		},
		{
			name: "unsupported_currency",
			body: handlers.SettingsRequest{Currency: "GBP"},
			setupMocks: func(m *mocks.MockSettingsService) {
				m.EXPECT().Get(gomock.Any()).Return(stored, nil)
				m.EXPECT().Update(gomock.Any(), "en", "GBP").
					Return(domain.AppSettings{}, &services.UnsupportedSettingError{Key: domain.SettingCurrency, Value: "GBP"})
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Unsupported currency: GBP",
		},
		{
			name:           "malformed_body",
			body:           []int{1, 2},
			setupMocks:     func(m *mocks.MockSettingsService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSettings := mocks.NewMockSettingsService(ctrl)
			tt.setupMocks(mockSettings)

			handler := handlers.NewSettingsHandler(mockSettings, "en", helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", jsonBody(t, tt.body))
			rec := httptest.NewRecorder()
			handler.UpdateSettings(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedError != "" {
				resp := decodeError(t, rec.Body.Bytes())
				assert.Equal(t, tt.expectedError, resp.Error)
			}
		})
	}
}
