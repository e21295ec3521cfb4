// internal/core/services/settings.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// SettingsService reads and writes language and currency preferences.
type SettingsService struct {
	repo     ports.SettingsRepository
	defaults domain.AppSettings
	logger   *slog.Logger
}

var _ ports.SettingsService = (*SettingsService)(nil)

// NewSettingsService creates a settings service. defaults apply to keys
// not present in the store.
func NewSettingsService(repo ports.SettingsRepository, defaults domain.AppSettings, logger *slog.Logger) *SettingsService {
	if defaults.Language == "" {
		defaults.Language = locale.DefaultLanguage
	}
	if defaults.Currency == "" {
		defaults.Currency = locale.DefaultCurrency
	}
	return &SettingsService{
		repo:     repo,
		defaults: defaults,
		logger:   logger.With(slog.String("service", "settings")),
	}
}

// Get returns the current preferences. Unsupported stored values are normalized.
func (s *SettingsService) Get(ctx context.Context) (domain.AppSettings, error) {
	lang, err := s.repo.Get(ctx, domain.SettingLanguage, s.defaults.Language)
	if err != nil {
		return s.defaults, fmt.Errorf("failed to read language: %w", err)
	}
	cur, err := s.repo.Get(ctx, domain.SettingCurrency, s.defaults.Currency)
	if err != nil {
		return s.defaults, fmt.Errorf("failed to read currency: %w", err)
	}

	return domain.AppSettings{
		Language: locale.NormalizeLanguage(lang),
		Currency: locale.LookupCurrency(cur).Code,
	}, nil
}

// Update validates and stores new preferences.
func (s *SettingsService) Update(ctx context.Context, language, currency string) (domain.AppSettings, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !locale.IsSupportedLanguage(language) {
		return domain.AppSettings{}, &UnsupportedSettingError{Key: domain.SettingLanguage, Value: language}
	}
	if !locale.IsSupportedCurrency(currency) {
		return domain.AppSettings{}, &UnsupportedSettingError{Key: domain.SettingCurrency, Value: currency}
	}

	if err := s.repo.Set(ctx, domain.SettingLanguage, language); err != nil {
		return domain.AppSettings{}, fmt.Errorf("failed to save language: %w", err)
	}
	if err := s.repo.Set(ctx, domain.SettingCurrency, currency); err != nil {
		return domain.AppSettings{}, fmt.Errorf("failed to save currency: %w", err)
	}

	s.logger.InfoContext(ctx, "preferences updated",
		slog.String("language", language),
		slog.String("currency", currency))

	return domain.AppSettings{Language: language, Currency: currency}, nil
}

// UnsupportedSettingError rejects an unknown language or currency code.
type UnsupportedSettingError struct {
	Key   string
	Value string
}

func (e *UnsupportedSettingError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Key, e.Value)
}
