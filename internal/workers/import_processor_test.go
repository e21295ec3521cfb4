package workers_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/workers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func workbookFile(t *testing.T, products []domain.Product) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteProducts(&buf, products))
	return helpers.CreateTempFile(t, buf.Bytes(), ".xlsx")
}

func importTask(t *testing.T, taskType, jobID, path string) *asynq.Task {
	t.Helper()
	task, err := workers.NewTask(taskType, workers.ImportPayload{JobID: jobID, FilePath: path})
	require.NoError(t, err)
	return task
}

func TestExcelProcessor_ImportExcel(t *testing.T) {
	catalog := []domain.Product{
		{ProductID: "P1", Name: "Espresso Beans", Price: decimal.RequireFromString("12.50"), Stock: 40},
		{ProductID: "P2", Name: "Milk Frother", Price: decimal.RequireFromString("29.99"), Stock: 3},
	}

	tests := []struct {
		name          string
		file          func(t *testing.T) string
		setupMocks    func(*mocks.MockInventoryService, *mocks.MockJobRepository)
		wantSkipRetry bool
	}{
		{
			name: "imports_all_rows",
			file: func(t *testing.T) string { return workbookFile(t, catalog) },
			setupMocks: func(inv *mocks.MockInventoryService, jobs *mocks.MockJobRepository) {
				gomock.InOrder(
					jobs.EXPECT().UpdateStatus(gomock.Any(), "job-1", domain.JobProcessing, "").Return(nil),
					inv.EXPECT().
						Upsert(gomock.Any(), gomock.Len(2)).
						Return(&ports.UpsertResult{Created: 1, Updated: 1}, nil),
					jobs.EXPECT().
						Complete(gomock.Any(), "job-1", domain.JobCompleted, gomock.Any()).
						DoAndReturn(func(_ context.Context, _ string, _ domain.JobStatus, stats *domain.ImportStats) error {
							assert.Equal(t, 2, stats.RowsRead)
							assert.Equal(t, 1, stats.Created)
							assert.Equal(t, 1, stats.Updated)
							assert.Empty(t, stats.Errors)
							assert.NotEmpty(t, stats.ProcessingTime)
							return nil
						}),
				)
			},
		},
		{
			name: "row_errors_are_reported",
			file: func(t *testing.T) string { return workbookFile(t, catalog) },
			setupMocks: func(inv *mocks.MockInventoryService, jobs *mocks.MockJobRepository) {
				jobs.EXPECT().UpdateStatus(gomock.Any(), "job-1", domain.JobProcessing, "").Return(nil)
				inv.EXPECT().Upsert(gomock.Any(), gomock.Any()).
					Return(&ports.UpsertResult{Created: 1, Errors: []string{"row 2: invalid product"}}, nil)
				jobs.EXPECT().
					Complete(gomock.Any(), "job-1", domain.JobCompletedWithErrors, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, _ domain.JobStatus, stats *domain.ImportStats) error {
						assert.Equal(t, []string{"row 2: invalid product"}, stats.Errors)
						return nil
					})
			},
		},
		{
			name: "unreadable_file_fails_job",
			file: func(t *testing.T) string { return helpers.CreateTempFile(t, []byte("not a workbook"), ".xlsx") },
			setupMocks: func(_ *mocks.MockInventoryService, jobs *mocks.MockJobRepository) {
				jobs.EXPECT().UpdateStatus(gomock.Any(), "job-1", domain.JobProcessing, "").Return(nil)
				jobs.EXPECT().UpdateStatus(gomock.Any(), "job-1", domain.JobFailed, gomock.Any()).Return(nil)
			},
			wantSkipRetry: true,
		},
		{
			name: "save_failure_fails_job",
			file: func(t *testing.T) string { return workbookFile(t, catalog) },
			setupMocks: func(inv *mocks.MockInventoryService, jobs *mocks.MockJobRepository) {
				jobs.EXPECT().UpdateStatus(gomock.Any(), "job-1", domain.JobProcessing, "").Return(nil)
				inv.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("tx aborted"))
				jobs.EXPECT().
					UpdateStatus(gomock.Any(), "job-1", domain.JobFailed, "failed to save products: tx aborted").
					Return(nil)
			},
			wantSkipRetry: true,
		},
		{
			name: "status_write_failure_does_not_stop_import",
			file: func(t *testing.T) string { return workbookFile(t, catalog) },
			setupMocks: func(inv *mocks.MockInventoryService, jobs *mocks.MockJobRepository) {
				jobs.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
				inv.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(&ports.UpsertResult{Created: 2}, nil)
				jobs.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			inventory := mocks.NewMockInventoryService(ctrl)
			jobs := mocks.NewMockJobRepository(ctrl)
			tt.setupMocks(inventory, jobs)

			path := tt.file(t)
			processor := workers.NewExcelProcessor(inventory, jobs, helpers.TestLogger())
			err := processor.ImportExcel(context.Background(), importTask(t, workers.TypeImportExcel, "job-1", path))

			if tt.wantSkipRetry {
				assert.ErrorIs(t, err, asynq.SkipRetry)
			} else {
				assert.NoError(t, err)
			}

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "upload should be removed")
		})
	}
}

func TestPDFProcessor_ImportPDF_Unreadable(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	jobs := mocks.NewMockJobRepository(ctrl)

	jobs.EXPECT().UpdateStatus(gomock.Any(), "job-2", domain.JobProcessing, "").Return(nil)
	jobs.EXPECT().
		UpdateStatus(gomock.Any(), "job-2", domain.JobFailed, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ domain.JobStatus, msg string) error {
			assert.Contains(t, msg, "failed to open PDF")
			return nil
		})

	path := helpers.CreateTempFile(t, []byte("%PDF-broken"), ".pdf")
	processor := workers.NewPDFProcessor(inventory, jobs, helpers.TestLogger())
	err := processor.ImportPDF(context.Background(), importTask(t, workers.TypeImportPDF, "job-2", path))

	assert.ErrorIs(t, err, asynq.SkipRetry)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
