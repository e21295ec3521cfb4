// internal/workers/analytics_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// AnalyticsProcessor recomputes the cached dashboard.
type AnalyticsProcessor struct {
	dashboard ports.DashboardService
	logger    *slog.Logger
}

// NewAnalyticsProcessor creates a new analytics processor
func NewAnalyticsProcessor(dashboard ports.DashboardService, logger *slog.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		dashboard: dashboard,
		logger:    logger.With(slog.String("processor", "analytics")),
	}
}

// RefreshAnalytics rebuilds the dashboard so the next request is a cache hit.
func (p *AnalyticsProcessor) RefreshAnalytics(ctx context.Context, _ *asynq.Task) error {
	p.logger.InfoContext(ctx, "refreshing analytics")

	dash, err := p.dashboard.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh dashboard: %w", err)
	}

	p.logger.InfoContext(ctx, "analytics refreshed",
		slog.Int("products", dash.ProductCount),
		slog.Int64("sales", dash.SaleCount))
	return nil
}
