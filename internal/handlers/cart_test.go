// internal/handlers/cart_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/core/services"
	"github.com/ammerola/pos-engine/internal/handlers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func testCartView(sessionID string, qty int) *ports.CartView {
	line := domain.CartLine{ProductID: "P001", Name: "Espresso Beans 1kg", UnitPrice: decimal.RequireFromString("10.00"), Quantity: qty}
	return &ports.CartView{
		SessionID: sessionID,
		Lines:     []ports.CartLineView{{CartLine: line, LineTotal: line.LineTotal().StringFixed(2)}},
		ItemCount: qty,
		Subtotal:  line.LineTotal().StringFixed(2),
	}
}

func TestCartHandler_CreateCart(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockCarts := mocks.NewMockCartService(ctrl)
	mockCarts.EXPECT().Create(gomock.Any()).Return(&ports.CartView{SessionID: "s-1", Lines: []ports.CartLineView{}, Subtotal: "0.00"}, nil)

	handler := handlers.NewCartHandler(mockCarts, "en", helpers.TestLogger())
	rec := httptest.NewRecorder()
	handler.CreateCart(rec, httptest.NewRequest(http.MethodPost, "/api/v1/carts", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/carts/s-1", rec.Header().Get("Location"))

	var view ports.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "s-1", view.SessionID)
	assert.Empty(t, view.Lines)
}

func TestCartHandler_AddLine(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(*mocks.MockCartService)
		expectedStatus int
		expectedCode   string
		expectedError  string
	}{
		{
			name: "adds_line",
			body: handlers.CartLineRequest{ProductID: "P001", Quantity: 2},
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().AddLine(gomock.Any(), "s-1", "P001", 2).Return(testCartView("s-1", 2), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "product_required",
			body:           handlers.CartLineRequest{Quantity: 2},
			setupMocks:     func(m *mocks.MockCartService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "product_id is required",
		},
		{
			name: "non_positive_quantity",
			body: handlers.CartLineRequest{ProductID: "P001", Quantity: 0},
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().AddLine(gomock.Any(), "s-1", "P001", 0).Return(nil, &domain.InvalidQuantityError{Quantity: 0})
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_quantity",
			expectedError:  "Quantity must be a positive integer.",
		},
		{
			name: "more_than_in_stock",
			body: handlers.CartLineRequest{ProductID: "P001", Quantity: 9},
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().AddLine(gomock.Any(), "s-1", "P001", 9).
					Return(nil, &domain.InsufficientStockError{ProductID: "P001", Name: "Espresso Beans 1kg", Available: 5, Requested: 9})
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "insufficient_stock",
			expectedError:  "Only 5 units available for Espresso Beans 1kg",
		},
		{
			name: "unknown_product",
			body: handlers.CartLineRequest{ProductID: "P404", Quantity: 1},
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().AddLine(gomock.Any(), "s-1", "P404", 1).Return(nil, &domain.ProductNotFoundError{ProductID: "P404"})
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "product_not_found",
			expectedError:  "Product P404 no longer exists.",
		},
		{
			name: "expired_session",
			body: handlers.CartLineRequest{ProductID: "P001", Quantity: 1},
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().AddLine(gomock.Any(), "s-1", "P001", 1).Return(nil, services.ErrCartNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "cart_not_found",
			expectedError:  services.ErrCartNotFound.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockCarts := mocks.NewMockCartService(ctrl)
			tt.setupMocks(mockCarts)

			handler := handlers.NewCartHandler(mockCarts, "en", helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/s-1/lines", jsonBody(t, tt.body))
			req.SetPathValue("id", "s-1")
			rec := httptest.NewRecorder()

			handler.AddLine(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var view ports.CartView
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
				assert.Equal(t, 2, view.ItemCount)
				assert.Equal(t, "20.00", view.Subtotal)
				return
			}
			resp := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}
}

func TestCartHandler_RemoveLine(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockCartService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "removes_line",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().RemoveLine(gomock.Any(), "s-1", "P001").
					Return(&ports.CartView{SessionID: "s-1", Lines: []ports.CartLineView{}, Subtotal: "0.00"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "line_not_in_cart",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().RemoveLine(gomock.Any(), "s-1", "P001").Return(nil, &domain.LineNotFoundError{ProductID: "P001"})
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "P001 is not in the cart.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockCarts := mocks.NewMockCartService(ctrl)
			tt.setupMocks(mockCarts)

			handler := handlers.NewCartHandler(mockCarts, "en", helpers.TestLogger())

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/carts/s-1/lines/P001", nil)
			req.SetPathValue("id", "s-1")
			req.SetPathValue("pid", "P001")
			rec := httptest.NewRecorder()

			handler.RemoveLine(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, rec.Body.Bytes()).Error)
			}
		})
	}
}

func TestCartHandler_Finalize(t *testing.T) {
	record := &domain.SaleRecord{
		SaleID:    7,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Subtotal:  decimal.RequireFromString("20.00"),
		Tax:       decimal.Zero,
		Total:     decimal.RequireFromString("20.00"),
		Items: []domain.SaleLine{{
			ProductID: "P001",
			Name:      "Espresso Beans 1kg",
			UnitPrice: decimal.RequireFromString("10.00"),
			Quantity:  2,
			LineTotal: decimal.RequireFromString("20.00"),
		}},
	}

	tests := []struct {
		name           string
		acceptLanguage string
		setupMocks     func(*mocks.MockCartService)
		expectedStatus int
		expectedCode   string
		expectedError  string
	}{
		{
			name: "commits_sale",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().Finalize(gomock.Any(), "s-1").Return(record, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "empty_cart",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().Finalize(gomock.Any(), "s-1").Return(nil, &domain.EmptyCartError{})
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "empty_cart",
			expectedError:  "No items in cart to finalize",
		},
		{
			name:           "empty_cart_in_french",
			acceptLanguage: "fr-FR",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().Finalize(gomock.Any(), "s-1").Return(nil, &domain.EmptyCartError{})
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "empty_cart",
			expectedError:  "Aucun article dans le panier à finaliser",
		},
		{
			name: "stock_changed_before_commit",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().Finalize(gomock.Any(), "s-1").
					Return(nil, &domain.InsufficientStockError{ProductID: "P001", Name: "Espresso Beans 1kg", Available: 1, Requested: 2})
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "insufficient_stock",
			expectedError:  "Only 1 units available for Espresso Beans 1kg",
		},
		{
			name: "write_failed",
			setupMocks: func(m *mocks.MockCartService) {
				m.EXPECT().Finalize(gomock.Any(), "s-1").
					Return(nil, &domain.PersistenceError{Op: "commit sale", Err: errors.New("disk full")})
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "persistence",
			expectedError:  "Failed to finalize sale: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockCarts := mocks.NewMockCartService(ctrl)
			tt.setupMocks(mockCarts)

			handler := handlers.NewCartHandler(mockCarts, "en", helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/s-1/finalize", nil)
			req.SetPathValue("id", "s-1")
			if tt.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tt.acceptLanguage)
			}
			rec := httptest.NewRecorder()

			handler.Finalize(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, fmt.Sprintf("/api/v1/sales/%d", record.SaleID), rec.Header().Get("Location"))
				var got domain.SaleRecord
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, record.SaleID, got.SaleID)
				assert.True(t, got.IsBalanced())
				return
			}
			resp := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}
}

func TestCartHandler_ClearCart(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockCarts := mocks.NewMockCartService(ctrl)
	mockCarts.EXPECT().Clear(gomock.Any(), "s-1").
		Return(&ports.CartView{SessionID: "s-1", Lines: []ports.CartLineView{}, Subtotal: "0.00"}, nil)
	mockCarts.EXPECT().Get(gomock.Any(), "s-2").Return(nil, services.ErrCartNotFound)

	handler := handlers.NewCartHandler(mockCarts, "en", helpers.TestLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/carts/s-1", nil)
	req.SetPathValue("id", "s-1")
	rec := httptest.NewRecorder()
	handler.ClearCart(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/carts/s-2", nil)
	req.SetPathValue("id", "s-2")
	rec = httptest.NewRecorder()
	handler.GetCart(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "cart_not_found", decodeError(t, rec.Body.Bytes()).Code)
}
