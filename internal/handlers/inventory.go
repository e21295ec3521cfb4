// internal/handlers/inventory.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// InventoryHandler serves the product catalog.
type InventoryHandler struct {
	responder
	service ports.InventoryService
}

// NewInventoryHandler creates a new inventory handler. language is used for
// error messages when the request carries no Accept-Language.
func NewInventoryHandler(service ports.InventoryService, language string, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		responder: newResponder(logger.With(slog.String("handler", "inventory")), language),
		service:   service,
	}
}

// ListProducts handles GET /api/v1/products
func (h *InventoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, "list products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	h.respondJSON(w, http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")

	product, ok, err := h.service.Get(r.Context(), productID)
	if err != nil {
		h.respondDomainError(w, r, "get product", err)
		return
	}
	if !ok {
		h.respondDomainError(w, r, "get product", &domain.ProductNotFoundError{ProductID: productID})
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products
func (h *InventoryHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := req.ToDomain()
	if err := h.service.Add(ctx, product); err != nil {
		h.respondDomainError(w, r, "add product", err)
		return
	}

	h.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ProductID),
		slog.String("name", product.Name))

	h.respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *InventoryHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("id")

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == "" {
		req.ProductID = productID
	}
	if req.ProductID != productID {
		h.respondError(w, http.StatusBadRequest, "product_id does not match the URL")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := req.ToDomain()
	if err := h.service.Update(ctx, product); err != nil {
		h.respondDomainError(w, r, "update product", err)
		return
	}

	h.logger.InfoContext(ctx, "product updated", slog.String("product_id", productID))
	h.respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *InventoryHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("id")

	if err := h.service.Delete(ctx, productID); err != nil {
		h.respondDomainError(w, r, "delete product", err)
		return
	}

	h.logger.InfoContext(ctx, "product deleted", slog.String("product_id", productID))
	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock handles POST /api/v1/products/{id}/stock
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("id")

	var req StockRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Delta == 0 {
		h.respondError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}

	product, err := h.service.AdjustStock(ctx, productID, req.Delta)
	if err != nil {
		h.respondDomainError(w, r, "adjust stock", err)
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// LowStock handles GET /api/v1/products/low-stock
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStock(r.Context())
	if err != nil {
		h.respondDomainError(w, r, "list low stock", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	h.respondJSON(w, http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// Request/Response DTOs

// ProductListResponse wraps a product list.
type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// ProductRequest is the body of create and update requests. Price accepts
// a JSON number or a decimal string.
type ProductRequest struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

// Validate checks the fields a request must carry. Range checks are left
// to the inventory service.
func (r *ProductRequest) Validate() error {
	if strings.TrimSpace(r.ProductID) == "" {
		return fmt.Errorf("product_id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// ToDomain converts the request to a domain product.
func (r *ProductRequest) ToDomain() *domain.Product {
	return &domain.Product{
		ProductID: strings.TrimSpace(r.ProductID),
		Name:      strings.TrimSpace(r.Name),
		Price:     r.Price,
		Stock:     r.Stock,
	}
}

// StockRequest is the body of a stock adjustment.
type StockRequest struct {
	Delta int `json:"delta"`
}
