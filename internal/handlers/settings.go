// internal/handlers/settings.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// SettingsHandler reads and writes the operator's language and currency.
type SettingsHandler struct {
	responder
	settings ports.SettingsService
}

func NewSettingsHandler(settings ports.SettingsService, language string, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		responder: newResponder(logger.With(slog.String("handler", "settings")), language),
		settings:  settings,
	}
}

// SettingsResponse is the stored preferences plus their display labels.
type SettingsResponse struct {
	Language            string   `json:"language"`
	Currency            string   `json:"currency"`
	LanguageName        string   `json:"language_name"`
	CurrencyDisplay     string   `json:"currency_display"`
	SupportedLanguages  []string `json:"supported_languages"`
	SupportedCurrencies []string `json:"supported_currencies"`
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Get(r.Context())
	if err != nil {
		h.respondDomainError(w, r, "load settings", err)
		return
	}

	h.respondJSON(w, http.StatusOK, newSettingsResponse(current.Language, current.Currency))
}

// UpdateSettings handles PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	current, err := h.settings.Get(ctx)
	if err != nil {
		h.respondDomainError(w, r, "load settings", err)
		return
	}
	if req.Language == "" {
		req.Language = current.Language
	}
	if req.Currency == "" {
		req.Currency = current.Currency
	}

	updated, err := h.settings.Update(ctx, req.Language, req.Currency)
	if err != nil {
		h.respondDomainError(w, r, "save settings", err)
		return
	}

	h.logger.InfoContext(ctx, "settings updated",
		slog.String("language", updated.Language),
		slog.String("currency", updated.Currency))

	h.respondJSON(w, http.StatusOK, newSettingsResponse(updated.Language, updated.Currency))
}

// SettingsRequest is the body of PUT /api/v1/settings. Omitted fields keep
// their stored value.
type SettingsRequest struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
}

func newSettingsResponse(language, currency string) SettingsResponse {
	return SettingsResponse{
		Language:            language,
		Currency:            currency,
		LanguageName:        locale.LanguageName(language),
		CurrencyDisplay:     locale.LookupCurrency(currency).Display(),
		SupportedLanguages:  locale.SupportedLanguages,
		SupportedCurrencies: locale.SupportedCurrencies,
	}
}
