// internal/core/services/settings_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/adapters/memory"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func TestSettingsService_Get(t *testing.T) {
	tests := []struct {
		name     string
		stored   map[string]string
		defaults domain.AppSettings
		want     domain.AppSettings
	}{
		{name: "built_in_defaults", want: domain.AppSettings{Language: "en", Currency: "USD"}},
		{name: "configured_defaults", defaults: domain.AppSettings{Language: "es", Currency: "MXN"}, want: domain.AppSettings{Language: "es", Currency: "MXN"}},
		{name: "stored_values", stored: map[string]string{"language": "ar", "currency": "MDH"}, want: domain.AppSettings{Language: "ar", Currency: "MDH"}},
		{name: "unsupported_stored_values", stored: map[string]string{"language": "de", "currency": "GBP"}, want: domain.AppSettings{Language: "en", Currency: "USD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			for k, v := range tt.stored {
				require.NoError(t, store.Set(ctx, k, v))
			}
			svc := services.NewSettingsService(store, tt.defaults, helpers.TestLogger())

			got, err := svc.Get(ctx)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Update(t *testing.T) {
	tests := []struct {
		name     string
		language string
		currency string
		want     domain.AppSettings
		wantKey  string
	}{
		{name: "normalizes_case", language: " FR ", currency: "eur", want: domain.AppSettings{Language: "fr", Currency: "EUR"}},
		{name: "unsupported_language", language: "de", currency: "EUR", wantKey: domain.SettingLanguage},
		{name: "unsupported_currency", language: "en", currency: "GBP", wantKey: domain.SettingCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			svc := services.NewSettingsService(store, domain.AppSettings{}, helpers.TestLogger())

			got, err := svc.Update(ctx, tt.language, tt.currency)

			if tt.wantKey != "" {
				var unsupported *services.UnsupportedSettingError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, tt.wantKey, unsupported.Key)
				all, _ := store.All(ctx)
				assert.Empty(t, all)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			stored, err := svc.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored)
		})
	}
}

func TestSettingsService_RepositoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSettingsRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), domain.SettingLanguage, "en").Return("", errors.New("db down"))
	repo.EXPECT().Set(gomock.Any(), domain.SettingLanguage, "es").Return(errors.New("db down"))

	svc := services.NewSettingsService(repo, domain.AppSettings{}, helpers.TestLogger())

	got, err := svc.Get(context.Background())
	assert.Error(t, err)
	assert.Equal(t, domain.AppSettings{Language: "en", Currency: "USD"}, got)

	_, err = svc.Update(context.Background(), "es", "EUR")
	assert.Error(t, err)
}
