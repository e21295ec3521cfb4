// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// responder writes JSON responses and maps engine errors to HTTP statuses
// with messages in the caller's language.
type responder struct {
	logger   *slog.Logger
	catalog  *locale.Catalog
	language string
}

func newResponder(logger *slog.Logger, language string) responder {
	return responder{
		logger:   logger,
		catalog:  locale.Default(),
		language: language,
	}
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}

// respondDomainError answers err with the status its kind maps to. Errors
// outside the engine taxonomy are logged and reported as 500 without detail.
func (h responder) respondDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "failed to "+op, slog.String("error", err.Error()))
		h.respondJSON(w, status, ErrorResponse{Error: "Failed to " + op, Code: code})
		return
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "failed to "+op, slog.String("error", err.Error()))
	} else {
		h.logger.DebugContext(r.Context(), "request rejected",
			slog.String("op", op),
			slog.String("error", err.Error()))
	}
	h.respondJSON(w, status, ErrorResponse{Error: services.Message(h.catalog, h.lang(r), err), Code: code})
}

func (h responder) lang(r *http.Request) string {
	return locale.MatchAcceptLanguage(r.Header.Get("Accept-Language"), h.language)
}

// classify maps an engine error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var setting *services.UnsupportedSettingError
	switch {
	case errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusBadRequest, "invalid_product"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.As(err, &setting):
		return http.StatusBadRequest, "unsupported_setting"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found"
	case errors.Is(err, domain.ErrLineNotFound):
		return http.StatusNotFound, "line_not_found"
	case errors.Is(err, services.ErrCartNotFound):
		return http.StatusNotFound, "cart_not_found"
	case errors.Is(err, services.ErrSaleNotFound):
		return http.StatusNotFound, "sale_not_found"
	case errors.Is(err, domain.ErrDuplicateProduct):
		return http.StatusConflict, "duplicate_product"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence"
	}
	return http.StatusInternalServerError, "internal"
}

// decodeJSON reads a JSON body into dest, rejecting unknown fields.
func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// queryLimit parses ?limit=; absent means 0.
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}
