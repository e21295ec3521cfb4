// internal/handlers/cart.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/logger"
)

// CartHandler serves per-session carts and checkout.
type CartHandler struct {
	responder
	carts ports.CartService
}

func NewCartHandler(carts ports.CartService, language string, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		responder: newResponder(logger.With(slog.String("handler", "cart")), language),
		carts:     carts,
	}
}

// CreateCart handles POST /api/v1/carts
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Create(r.Context())
	if err != nil {
		h.respondDomainError(w, r, "create cart", err)
		return
	}

	w.Header().Set("Location", "/api/v1/carts/"+view.SessionID)
	h.respondJSON(w, http.StatusCreated, view)
}

// GetCart handles GET /api/v1/carts/{id}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.session(r)

	view, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		h.respondDomainError(w, r, "get cart", err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// AddLine handles POST /api/v1/carts/{id}/lines
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.session(r)

	var req CartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == "" {
		h.respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	view, err := h.carts.AddLine(ctx, sessionID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondDomainError(w, r, "add cart line", err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// RemoveLine handles DELETE /api/v1/carts/{id}/lines/{pid}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.session(r)

	view, err := h.carts.RemoveLine(ctx, sessionID, r.PathValue("pid"))
	if err != nil {
		h.respondDomainError(w, r, "remove cart line", err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// ClearCart handles DELETE /api/v1/carts/{id}
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.session(r)

	view, err := h.carts.Clear(ctx, sessionID)
	if err != nil {
		h.respondDomainError(w, r, "clear cart", err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// Finalize handles POST /api/v1/carts/{id}/finalize
func (h *CartHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.session(r)

	record, err := h.carts.Finalize(ctx, sessionID)
	if err != nil {
		h.respondDomainError(w, r, "finalize sale", err)
		return
	}

	ctx = logger.WithSaleID(ctx, record.SaleID)
	h.logger.InfoContext(ctx, "sale finalized",
		slog.String("total", record.Total.StringFixed(2)),
		slog.Int("items", record.ItemCount()))

	w.Header().Set("Location", "/api/v1/sales/"+strconv.FormatInt(record.SaleID, 10))
	h.respondJSON(w, http.StatusCreated, record)
}

func (h *CartHandler) session(r *http.Request) (context.Context, string) {
	sessionID := r.PathValue("id")
	return logger.WithCartSession(r.Context(), sessionID), sessionID
}

// CartLineRequest is the body of an add-line request.
type CartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
