// internal/handlers/import.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/workers"
)

// ImportConfig limits uploads and says where they wait for a worker.
type ImportConfig struct {
	UploadDir    string
	ExcelMaxSize int64
	PDFMaxSize   int64
}

// ImportHandler accepts catalog uploads and reports import job status.
type ImportHandler struct {
	responder
	jobs   ports.JobRepository
	queue  ports.TaskQueue
	config ImportConfig
}

// NewImportHandler creates a new import handler
func NewImportHandler(jobs ports.JobRepository, queue ports.TaskQueue, cfg ImportConfig, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		responder: newResponder(logger.With(slog.String("handler", "import")), ""),
		jobs:      jobs,
		queue:     queue,
		config:    cfg,
	}
}

type importKind struct {
	job       domain.JobKind
	taskType  string
	extension string
	label     string
}

var (
	excelImport = importKind{job: domain.JobImportExcel, taskType: workers.TypeImportExcel, extension: ".xlsx", label: "Excel"}
	pdfImport   = importKind{job: domain.JobImportPDF, taskType: workers.TypeImportPDF, extension: ".pdf", label: "PDF"}
)

// ImportExcel handles POST /api/v1/import/excel
func (h *ImportHandler) ImportExcel(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, excelImport, h.config.ExcelMaxSize)
}

// ImportPDF handles POST /api/v1/import/pdf
func (h *ImportHandler) ImportPDF(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, pdfImport, h.config.PDFMaxSize)
}

// ImportStatus handles GET /api/v1/import/status/{id}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("id")

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to get job status")
		return
	}
	if job == nil {
		h.respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *ImportHandler) accept(w http.ResponseWriter, r *http.Request, kind importKind, maxSize int64) {
	ctx := r.Context()

	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB limit", maxSize>>20))
			return
		}
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(fileName), kind.extension) {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Only %s files are allowed", kind.extension))
		return
	}

	jobID := uuid.New().String()
	path, err := h.save(jobID, kind.extension, file)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save upload", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	now := time.Now().UTC()
	job := &domain.ImportJob{
		ID:        jobID,
		Kind:      kind.job,
		FileName:  fileName,
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		os.Remove(path)
		h.logger.ErrorContext(ctx, "failed to create job record", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create import job")
		return
	}

	taskID, err := h.queue.Enqueue(ctx, kind.taskType, workers.ImportPayload{JobID: jobID, FilePath: path})
	if err != nil {
		os.Remove(path)
		h.failJob(ctx, jobID, "failed to queue import")
		h.logger.ErrorContext(ctx, "failed to enqueue task", slog.String("error", err.Error()))
		h.respondError(w, http.StatusServiceUnavailable, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, kind.label+" import queued",
		slog.String("job_id", jobID),
		slog.String("task_id", taskID),
		slog.String("file_name", fileName))

	w.Header().Set("Location", "/api/v1/import/status/"+jobID)
	h.respondJSON(w, http.StatusAccepted, TaskResponse{
		TaskID:  taskID,
		JobID:   jobID,
		Status:  string(domain.JobPending),
		Message: kind.label + " import has been queued for processing",
	})
}

func (h *ImportHandler) save(jobID, extension string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.config.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(h.config.UploadDir, jobID+extension)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path, nil
}

func (h *ImportHandler) failJob(ctx context.Context, jobID, msg string) {
	if err := h.jobs.UpdateStatus(ctx, jobID, domain.JobFailed, msg); err != nil {
		h.logger.WarnContext(ctx, "failed to mark job failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}
