// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is. Each typed error below unwraps to one of them.
var (
	ErrInvalidProduct    = errors.New("invalid product")
	ErrDuplicateProduct  = errors.New("duplicate product")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("empty cart")
	ErrPersistence       = errors.New("persistence failure")
	ErrLineNotFound      = errors.New("cart line not found")
)

// InvalidProductError reports a malformed product field.
type InvalidProductError struct {
	Field  string
	Reason string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: %s %s", e.Field, e.Reason)
}

func (e *InvalidProductError) Unwrap() error { return ErrInvalidProduct }

// DuplicateProductError is returned when adding a product whose id is taken.
type DuplicateProductError struct {
	ProductID string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product %s already exists", e.ProductID)
}

func (e *DuplicateProductError) Unwrap() error { return ErrDuplicateProduct }

// ProductNotFoundError names the product that could not be found.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s no longer exists", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// InvalidQuantityError is returned for non-positive cart quantities.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be a positive integer, got %d", e.Quantity)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// InsufficientStockError carries enough context to tell the operator
// how many units were asked for and how many exist.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units available for %s (%s), requested %d",
		e.Available, e.Name, e.ProductID, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// EmptyCartError is returned when finalizing a cart with no lines.
type EmptyCartError struct{}

func (e *EmptyCartError) Error() string { return "no items in cart to finalize" }

func (e *EmptyCartError) Unwrap() error { return ErrEmptyCart }

// PersistenceError wraps a storage failure during commit. The underlying
// transaction has been rolled back when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// LineNotFoundError is returned when removing a product the cart does not hold.
type LineNotFoundError struct {
	ProductID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("cart has no line for product %s", e.ProductID)
}

func (e *LineNotFoundError) Unwrap() error { return ErrLineNotFound }
