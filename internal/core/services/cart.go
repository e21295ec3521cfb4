// internal/core/services/cart.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

var (
	// ErrCartNotFound is returned for unknown or expired cart sessions.
	ErrCartNotFound = errors.New("cart session not found")
	// ErrCartNotReset is returned when a sale committed but its session
	// could be neither cleared nor dropped.
	ErrCartNotReset = errors.New("sale committed but cart session could not be reset")
)

// CartSessionService keeps one cart per session in the cache. Lines are
// validated against the cached product list, which may be stale; Finalize
// re-checks against the store.
type CartSessionService struct {
	cache     ports.CacheRepository
	inventory ports.InventoryService
	checkout  ports.Checkout
	settings  ports.SettingsService
	ttl       time.Duration
	logger    *slog.Logger
}

var _ ports.CartService = (*CartSessionService)(nil)

// NewCartSessionService creates the session cart service. settings may be nil.
func NewCartSessionService(
	cache ports.CacheRepository,
	inventory ports.InventoryService,
	checkout ports.Checkout,
	settings ports.SettingsService,
	ttl time.Duration,
	logger *slog.Logger,
) *CartSessionService {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartSessionService{
		cache:     cache,
		inventory: inventory,
		checkout:  checkout,
		settings:  settings,
		ttl:       ttl,
		logger:    logger.With(slog.String("service", "cart")),
	}
}

// Create opens a new empty cart session.
func (s *CartSessionService) Create(ctx context.Context) (*ports.CartView, error) {
	sessionID := uuid.NewString()
	cart := domain.NewCart()
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "cart session created", slog.String("cart_session", sessionID))
	return s.view(ctx, sessionID, cart), nil
}

// Get returns the cart for sessionID.
func (s *CartSessionService) Get(ctx context.Context, sessionID string) (*ports.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sessionID, cart), nil
}

// AddLine adds quantity units of productID to the session cart.
func (s *CartSessionService) AddLine(ctx context.Context, sessionID, productID string, quantity int) (*ports.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	products, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	snapshot := domain.NewSnapshot(products, time.Now())

	if err := cart.AddLine(strings.TrimSpace(productID), quantity, snapshot); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	line, _ := cart.Line(strings.TrimSpace(productID))
	s.logger.InfoContext(ctx, "cart line added",
		slog.String("cart_session", sessionID),
		slog.String("product_id", line.ProductID),
		slog.Int("quantity", line.Quantity))

	return s.view(ctx, sessionID, cart), nil
}

// RemoveLine removes productID from the session cart.
func (s *CartSessionService) RemoveLine(ctx context.Context, sessionID, productID string) (*ports.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveLine(productID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, sessionID, cart), nil
}

// Clear empties the session cart.
func (s *CartSessionService) Clear(ctx context.Context, sessionID string) (*ports.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, sessionID, cart), nil
}

// Finalize commits the session cart. The stored cart is only cleared
// when the sale commits. If the cleared cart cannot be stored the session
// is dropped, so a committed cart is never left behind to be sold again.
func (s *CartSessionService) Finalize(ctx context.Context, sessionID string) (*domain.SaleRecord, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record, err := s.checkout.Finalize(ctx, cart)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		logger := s.logger.With(
			slog.String("cart_session", sessionID),
			slog.Int64("sale_id", record.SaleID))

		if delErr := s.cache.Delete(ctx, CacheKeyCartPrefix+sessionID); delErr != nil {
			logger.ErrorContext(ctx, "sale committed but cart session not reset",
				slog.String("save_error", err.Error()),
				slog.String("delete_error", delErr.Error()))
			return nil, fmt.Errorf("sale %d: %w", record.SaleID, ErrCartNotReset)
		}
		logger.WarnContext(ctx, "cart session dropped after sale",
			slog.String("error", err.Error()))
	}
	return record, nil
}

func (s *CartSessionService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrCartNotFound
	}

	cart := domain.NewCart()
	if err := s.cache.Get(ctx, CacheKeyCartPrefix+sessionID, cart); err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *CartSessionService) save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if err := s.cache.SetWithTTL(ctx, CacheKeyCartPrefix+sessionID, cart, s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *CartSessionService) view(ctx context.Context, sessionID string, cart *domain.Cart) *ports.CartView {
	lines := cart.Lines()
	v := &ports.CartView{
		SessionID: sessionID,
		Lines:     make([]ports.CartLineView, 0, len(lines)),
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal().StringFixed(2),
	}
	for _, l := range lines {
		v.Lines = append(v.Lines, ports.CartLineView{CartLine: l, LineTotal: l.LineTotal().StringFixed(2)})
	}

	if s.settings != nil {
		if prefs, err := s.settings.Get(ctx); err == nil {
			cur := locale.LookupCurrency(prefs.Currency)
			v.Display = map[string]string{"subtotal": cur.Format(cart.Subtotal())}
		}
	}
	return v
}
