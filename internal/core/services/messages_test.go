// internal/core/services/messages_test.go
package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/services"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		lang string
		err  error
		want string
	}{
		{
			name: "insufficient_stock",
			lang: "en",
			err:  &domain.InsufficientStockError{ProductID: "P1", Name: "Coffee", Available: 2, Requested: 3},
			want: "Only 2 units available for Coffee",
		},
		{
			name: "insufficient_stock_wrapped_spanish",
			lang: "es",
			err:  fmt.Errorf("add line: %w", &domain.InsufficientStockError{ProductID: "P1", Name: "Café", Available: 0, Requested: 1}),
			want: "Solo hay 0 unidades disponibles de Café",
		},
		{
			name: "product_gone",
			lang: "fr",
			err:  &domain.ProductNotFoundError{ProductID: "P9"},
			want: "Le produit P9 n'existe plus.",
		},
		{
			name: "empty_cart",
			lang: "en",
			err:  &domain.EmptyCartError{},
			want: "No items in cart to finalize",
		},
		{
			name: "negative_price",
			lang: "en",
			err:  &domain.InvalidProductError{Field: "price", Reason: "must not be negative"},
			want: "Price and stock must be non-negative",
		},
		{
			name: "unsupported_language",
			lang: "en",
			err:  &services.UnsupportedSettingError{Key: domain.SettingLanguage, Value: "de"},
			want: "Unsupported language: de",
		},
		{
			name: "persistence",
			lang: "en",
			err:  &domain.PersistenceError{Op: "commit sale", Err: errors.New("connection reset")},
			want: "Failed to finalize sale: connection reset",
		},
		{
			name: "unknown_language_falls_back",
			lang: "de",
			err:  &domain.EmptyCartError{},
			want: "No items in cart to finalize",
		},
		{
			name: "foreign_error",
			lang: "en",
			err:  errors.New("something else"),
			want: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.Message(nil, tt.lang, tt.err))
		})
	}
}
