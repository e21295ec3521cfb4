// internal/core/services/sales.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// ErrSaleNotFound is returned when a sale id does not exist.
var ErrSaleNotFound = errors.New("sale not found")

// SalesService reads the sales log and renders invoices for past sales.
type SalesService struct {
	sales    ports.SaleRepository
	settings ports.SettingsService
	limit    int
	logger   *slog.Logger
}

var _ ports.SalesService = (*SalesService)(nil)

// NewSalesService creates a sales history service. defaultLimit caps
// History when the caller passes no limit; zero means unlimited.
func NewSalesService(sales ports.SaleRepository, settings ports.SettingsService, defaultLimit int, logger *slog.Logger) *SalesService {
	return &SalesService{
		sales:    sales,
		settings: settings,
		limit:    defaultLimit,
		logger:   logger.With(slog.String("service", "sales")),
	}
}

// History lists sales newest first with a revenue summary.
func (s *SalesService) History(ctx context.Context, limit int) (*ports.SalesHistory, error) {
	if limit <= 0 {
		limit = s.limit
	}

	records, err := s.sales.ListSaleRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	revenue := decimal.Zero
	for _, r := range records {
		revenue = revenue.Add(r.Total)
	}

	prefs := s.preferences(ctx)
	cur := locale.LookupCurrency(prefs.Currency)

	summary := locale.Default().Translate(prefs.Language, "history.hero.empty", nil)
	if len(records) > 0 {
		summary = locale.Default().Translate(prefs.Language, "history.hero.summary", locale.Args{
			"count":   len(records),
			"revenue": cur.Format(revenue),
		})
	}

	if records == nil {
		records = []domain.SaleRecord{}
	}
	return &ports.SalesHistory{
		Sales:   records,
		Count:   len(records),
		Revenue: revenue.StringFixed(2),
		Summary: summary,
	}, nil
}

// Get returns one sale.
func (s *SalesService) Get(ctx context.Context, saleID int64) (*domain.SaleRecord, error) {
	record, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %d", ErrSaleNotFound, saleID)
	}
	return record, nil
}

// Invoice renders the invoice for a stored sale. Empty settings fields fall
// back to the stored preferences.
func (s *SalesService) Invoice(ctx context.Context, saleID int64, settings domain.AppSettings) (string, error) {
	record, err := s.Get(ctx, saleID)
	if err != nil {
		return "", err
	}

	prefs := s.preferences(ctx)
	if settings.Language != "" {
		prefs.Language = settings.Language
	}
	if settings.Currency != "" {
		prefs.Currency = settings.Currency
	}
	return RenderInvoice(record, NewFormattingConfig(prefs)), nil
}

func (s *SalesService) preferences(ctx context.Context) domain.AppSettings {
	prefs := domain.AppSettings{Language: locale.DefaultLanguage, Currency: locale.DefaultCurrency}
	if s.settings == nil {
		return prefs
	}
	stored, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "using default preferences", slog.String("error", err.Error()))
		return prefs
	}
	return stored
}
