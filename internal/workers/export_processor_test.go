package workers_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/adapters/storage"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/workers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func exportTask(t *testing.T, payload workers.ExportPayload) *asynq.Task {
	t.Helper()
	task, err := workers.NewTask(workers.TypeExport, payload)
	require.NoError(t, err)
	return task
}

func onlyExport(t *testing.T, store *storage.LocalStorage, kind string) []byte {
	t.Helper()
	keys, err := store.List(context.Background(), "exports/")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "exports/"+kind+"-"), keys[0])
	assert.True(t, strings.HasSuffix(keys[0], ".xlsx"), keys[0])

	data, err := store.Download(context.Background(), keys[0])
	require.NoError(t, err)
	return data
}

func TestExportProcessor_Sales(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	sales := mocks.NewMockSalesService(ctrl)

	record := domain.SaleRecord{
		SaleID:    1,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Subtotal:  decimal.RequireFromString("25.00"),
		Tax:       decimal.Zero,
		Total:     decimal.RequireFromString("25.00"),
		Items: []domain.SaleLine{{
			ProductID: "P1",
			Name:      "Espresso Beans",
			UnitPrice: decimal.RequireFromString("12.50"),
			Quantity:  2,
			LineTotal: decimal.RequireFromString("25.00"),
		}},
	}
	sales.EXPECT().History(gomock.Any(), 50).
		Return(&ports.SalesHistory{Sales: []domain.SaleRecord{record}, Count: 1}, nil)

	store := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())
	processor := workers.NewExportProcessor(inventory, sales, store, helpers.TestLogger())

	require.NoError(t, processor.Export(context.Background(), exportTask(t, workers.ExportPayload{Limit: 50})))

	wb, err := xlsx.OpenBinary(onlyExport(t, store, workers.ExportSales))
	require.NoError(t, err)
	require.Contains(t, wb.Sheet, "Sales")
	cell, err := wb.Sheet["Sales"].Cell(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", cell.String())
}

func TestExportProcessor_Products(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	sales := mocks.NewMockSalesService(ctrl)

	products := helpers.CreateTestProducts(3)
	inventory.EXPECT().List(gomock.Any()).Return(products, nil)

	store := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())
	processor := workers.NewExportProcessor(inventory, sales, store, helpers.TestLogger())

	require.NoError(t, processor.Export(context.Background(),
		exportTask(t, workers.ExportPayload{Kind: workers.ExportProducts})))

	parsed, err := spreadsheet.ParseProducts(onlyExport(t, store, workers.ExportProducts))
	require.NoError(t, err)
	assert.Empty(t, parsed.Errors)
	require.Len(t, parsed.Products, 3)
	assert.Equal(t, products[0].ProductID, parsed.Products[0].ProductID)
}

func TestExportProcessor_Failures(t *testing.T) {
	tests := []struct {
		name          string
		payload       workers.ExportPayload
		setupMocks    func(*mocks.MockInventoryService, *mocks.MockSalesService, *mocks.MockFileStorage)
		wantErr       string
		wantSkipRetry bool
	}{
		{
			name:          "unknown_kind",
			payload:       workers.ExportPayload{Kind: "customers"},
			setupMocks:    func(*mocks.MockInventoryService, *mocks.MockSalesService, *mocks.MockFileStorage) {},
			wantErr:       `unknown export kind "customers"`,
			wantSkipRetry: true,
		},
		{
			name:    "sales_unavailable",
			payload: workers.ExportPayload{Kind: workers.ExportSales},
			setupMocks: func(_ *mocks.MockInventoryService, sales *mocks.MockSalesService, _ *mocks.MockFileStorage) {
				sales.EXPECT().History(gomock.Any(), 0).Return(nil, errors.New("db down"))
			},
			wantErr: "failed to load sales",
		},
		{
			name:    "upload_failure",
			payload: workers.ExportPayload{Kind: workers.ExportProducts},
			setupMocks: func(inv *mocks.MockInventoryService, _ *mocks.MockSalesService, fs *mocks.MockFileStorage) {
				inv.EXPECT().List(gomock.Any()).Return(helpers.CreateTestProducts(1), nil)
				fs.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Any(), spreadsheet.ContentType).
					Return("", errors.New("bucket missing"))
			},
			wantErr: "failed to upload export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			inventory := mocks.NewMockInventoryService(ctrl)
			sales := mocks.NewMockSalesService(ctrl)
			fileStorage := mocks.NewMockFileStorage(ctrl)
			tt.setupMocks(inventory, sales, fileStorage)

			processor := workers.NewExportProcessor(inventory, sales, fileStorage, helpers.TestLogger())
			err := processor.Export(context.Background(), exportTask(t, tt.payload))

			assert.ErrorContains(t, err, tt.wantErr)
			if tt.wantSkipRetry {
				assert.ErrorIs(t, err, asynq.SkipRetry)
			} else {
				assert.NotErrorIs(t, err, asynq.SkipRetry)
			}
		})
	}
}
