// internal/handlers/export.go
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/pos-engine/internal/adapters/spreadsheet"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/workers"
)

// ExportHandler streams XLSX exports and queues archived ones.
type ExportHandler struct {
	responder
	inventory ports.InventoryService
	sales     ports.SalesService
	queue     ports.TaskQueue
	now       func() time.Time
}

// NewExportHandler creates a new export handler
func NewExportHandler(
	inventory ports.InventoryService,
	sales ports.SalesService,
	queue ports.TaskQueue,
	language string,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		responder: newResponder(logger.With(slog.String("handler", "export")), language),
		inventory: inventory,
		sales:     sales,
		queue:     queue,
		now:       time.Now,
	}
}

// ExportProducts handles GET /api/v1/export/products.xlsx
func (h *ExportHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.inventory.List(ctx)
	if err != nil {
		h.respondDomainError(w, r, "load products", err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteProducts(&buf, products); err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	h.writeWorkbook(w, r, workers.ExportProducts, buf.Bytes(), len(products))
}

// ExportSales handles GET /api/v1/export/sales.xlsx?limit=
func (h *ExportHandler) ExportSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := queryLimit(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	history, err := h.sales.History(ctx, limit)
	if err != nil {
		h.respondDomainError(w, r, "load sales history", err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteSales(&buf, history.Sales); err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	h.writeWorkbook(w, r, workers.ExportSales, buf.Bytes(), history.Count)
}

// QueueExport handles POST /api/v1/export/{kind}. The worker writes the
// workbook to file storage under exports/.
func (h *ExportHandler) QueueExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := r.PathValue("kind")
	if kind != workers.ExportSales && kind != workers.ExportProducts {
		h.respondError(w, http.StatusBadRequest, "kind must be sales or products")
		return
	}

	limit, ok := queryLimit(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	taskID, err := h.queue.Enqueue(ctx, workers.TypeExport, workers.ExportPayload{Kind: kind, Limit: limit})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to queue export", slog.String("error", err.Error()))
		h.respondError(w, http.StatusServiceUnavailable, "Failed to queue export")
		return
	}

	h.respondJSON(w, http.StatusAccepted, TaskResponse{
		TaskID:  taskID,
		Status:  "queued",
		Message: fmt.Sprintf("%s export has been queued", kind),
	})
}

func (h *ExportHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, kind string, data []byte, rows int) {
	filename := fmt.Sprintf("%s_export_%s.xlsx", kind, h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write Excel response", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "export completed",
		slog.String("kind", kind),
		slog.Int("rows", rows),
		slog.String("filename", filename))
}
