package workers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/workers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func TestAnalyticsProcessor_RefreshAnalytics(t *testing.T) {
	tests := []struct {
		name    string
		dash    *ports.Dashboard
		err     error
		wantErr bool
	}{
		{name: "refreshes_dashboard", dash: &ports.Dashboard{ProductCount: 4, SaleCount: 9}},
		{name: "refresh_failure", err: errors.New("redis down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dashboard := mocks.NewMockDashboardService(ctrl)
			dashboard.EXPECT().Refresh(gomock.Any()).Return(tt.dash, tt.err)

			err := workers.NewAnalyticsProcessor(dashboard, helpers.TestLogger()).
				RefreshAnalytics(context.Background(), nil)
			if tt.wantErr {
				assert.ErrorContains(t, err, "failed to refresh dashboard")
				return
			}
			assert.NoError(t, err)
		})
	}
}
