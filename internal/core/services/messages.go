// internal/core/services/messages.go
package services

import (
	"errors"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// Message turns an engine error into an operator-facing message in lang.
// Errors outside the engine taxonomy return err.Error().
func Message(catalog *locale.Catalog, lang string, err error) string {
	if catalog == nil {
		catalog = locale.Default()
	}

	var (
		invalid     *domain.InvalidProductError
		duplicate   *domain.DuplicateProductError
		notFound    *domain.ProductNotFoundError
		quantity    *domain.InvalidQuantityError
		stock       *domain.InsufficientStockError
		empty       *domain.EmptyCartError
		persistence *domain.PersistenceError
		line        *domain.LineNotFoundError
		setting     *UnsupportedSettingError
	)

	switch {
	case errors.As(err, &stock):
		return catalog.Translate(lang, "sales.error.insufficient_stock", locale.Args{
			"stock": stock.Available, "name": stock.Name,
		})
	case errors.As(err, &notFound):
		return catalog.Translate(lang, "sales.status.no_longer_exists", locale.Args{"product_id": notFound.ProductID})
	case errors.As(err, &quantity):
		return catalog.Translate(lang, "sales.error.quantity", nil)
	case errors.As(err, &empty):
		return catalog.Translate(lang, "sales.warning.empty", nil)
	case errors.As(err, &duplicate):
		return catalog.Translate(lang, "inventory.error.duplicate", nil)
	case errors.As(err, &invalid):
		if invalid.Field == "price" || invalid.Field == "stock" {
			return catalog.Translate(lang, "inventory.error.negative", nil)
		}
		return catalog.Translate(lang, "inventory.error.required", nil)
	case errors.As(err, &line):
		return catalog.Translate(lang, "sales.error.line_missing", locale.Args{"product_id": line.ProductID})
	case errors.As(err, &persistence):
		return catalog.Translate(lang, "sales.error.database", locale.Args{"error": persistence.Err})
	case errors.As(err, &setting):
		return catalog.Translate(lang, "settings.error."+setting.Key, locale.Args{setting.Key: setting.Value})
	}
	return err.Error()
}
