// internal/handlers/import_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/handlers"
	"github.com/ammerola/pos-engine/internal/workers"
	"github.com/ammerola/pos-engine/test/helpers"
	"github.com/ammerola/pos-engine/test/mocks"
)

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestImportHandler_ImportExcel(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		filename       string
		setupMocks     func(*mocks.MockJobRepository, *mocks.MockTaskQueue)
		expectedStatus int
		expectedError  string
		expectUpload   bool
	}{
		{
			name:     "queues_import",
			field:    "file",
			filename: "catalog.XLSX",
			setupMocks: func(j *mocks.MockJobRepository, q *mocks.MockTaskQueue) {
				j.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, job *domain.ImportJob) error {
						assert.Equal(t, domain.JobImportExcel, job.Kind)
						assert.Equal(t, domain.JobPending, job.Status)
						assert.Equal(t, "catalog.XLSX", job.FileName)
						return nil
					})
				q.EXPECT().Enqueue(gomock.Any(), workers.TypeImportExcel, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, payload any) (string, error) {
						p, ok := payload.(workers.ImportPayload)
						require.True(t, ok)
						assert.Equal(t, ".xlsx", filepath.Ext(p.FilePath))
						assert.FileExists(t, p.FilePath)
						return "task-1", nil
					})
			},
			expectedStatus: http.StatusAccepted,
			expectUpload:   true,
		},
		{
			name:           "missing_file",
			field:          "",
			setupMocks:     func(j *mocks.MockJobRepository, q *mocks.MockTaskQueue) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "File is required",
		},
		{
			name:           "wrong_extension",
			field:          "file",
			filename:       "catalog.csv",
			setupMocks:     func(j *mocks.MockJobRepository, q *mocks.MockTaskQueue) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Only .xlsx files are allowed",
		},
		{
			name:     "job_store_down",
			field:    "file",
			filename: "catalog.xlsx",
			setupMocks: func(j *mocks.MockJobRepository, q *mocks.MockTaskQueue) {
				j.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to create import job",
		},
		{
			name:     "queue_down_marks_job_failed",
			field:    "file",
			filename: "catalog.xlsx",
			setupMocks: func(j *mocks.MockJobRepository, q *mocks.MockTaskQueue) {
				j.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				q.EXPECT().Enqueue(gomock.Any(), workers.TypeImportExcel, gomock.Any()).Return("", errors.New("redis down"))
				j.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.JobFailed, "failed to queue import").Return(nil)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "Failed to queue import job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockJobs := mocks.NewMockJobRepository(ctrl)
			mockQueue := mocks.NewMockTaskQueue(ctrl)
			tt.setupMocks(mockJobs, mockQueue)

			uploadDir := filepath.Join(t.TempDir(), "uploads")
			handler := handlers.NewImportHandler(mockJobs, mockQueue, handlers.ImportConfig{
				UploadDir:    uploadDir,
				ExcelMaxSize: 1 << 20,
				PDFMaxSize:   1 << 20,
			}, helpers.TestLogger())

			body, contentType := multipartUpload(t, tt.field, tt.filename, []byte("PK\x03\x04 workbook"))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/import/excel", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			handler.ImportExcel(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectUpload {
				var resp handlers.TaskResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "task-1", resp.TaskID)
				assert.Equal(t, "pending", resp.Status)
				assert.Equal(t, "/api/v1/import/status/"+resp.JobID, rec.Header().Get("Location"))
				assert.Equal(t, []string{resp.JobID + ".xlsx"}, uploadedFiles(t, uploadDir))
				return
			}
			assert.Equal(t, tt.expectedError, decodeError(t, rec.Body.Bytes()).Error)
			assert.Empty(t, uploadedFiles(t, uploadDir))
		})
	}
}

func TestImportHandler_ImportPDF_TooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := handlers.NewImportHandler(mocks.NewMockJobRepository(ctrl), mocks.NewMockTaskQueue(ctrl), handlers.ImportConfig{
		UploadDir:    t.TempDir(),
		ExcelMaxSize: 1 << 20,
		PDFMaxSize:   1 << 20,
	}, helpers.TestLogger())

	body, contentType := multipartUpload(t, "file", "prices.pdf", bytes.Repeat([]byte("x"), 2<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ImportPDF(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File exceeds the 1 MB limit", decodeError(t, rec.Body.Bytes()).Error)
}

func TestImportHandler_ImportStatus(t *testing.T) {
	done := time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)
	job := &domain.ImportJob{
		ID:          "job-1",
		Kind:        domain.JobImportPDF,
		FileName:    "prices.pdf",
		Status:      domain.JobCompletedWithErrors,
		Result:      &domain.ImportStats{RowsRead: 3, Created: 2, Errors: []string{"line 3: missing price"}},
		CompletedAt: &done,
	}

	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockJobRepository)
		expectedStatus int
	}{
		{
			name: "reports_job",
			setupMocks: func(m *mocks.MockJobRepository) {
				m.EXPECT().Get(gomock.Any(), "job-1").Return(job, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unknown_job",
			setupMocks: func(m *mocks.MockJobRepository) {
				m.EXPECT().Get(gomock.Any(), "job-1").Return(nil, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "store_error",
			setupMocks: func(m *mocks.MockJobRepository) {
				m.EXPECT().Get(gomock.Any(), "job-1").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockJobs := mocks.NewMockJobRepository(ctrl)
			tt.setupMocks(mockJobs)

			handler := handlers.NewImportHandler(mockJobs, mocks.NewMockTaskQueue(ctrl), handlers.ImportConfig{UploadDir: t.TempDir()}, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status/job-1", nil)
			req.SetPathValue("id", "job-1")
			rec := httptest.NewRecorder()
			handler.ImportStatus(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var got domain.ImportJob
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, domain.JobCompletedWithErrors, got.Status)
				require.NotNil(t, got.Result)
				assert.Equal(t, 2, got.Result.Created)
			}
		})
	}
}
