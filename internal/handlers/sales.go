// internal/handlers/sales.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/logger"
	"github.com/ammerola/pos-engine/internal/workers"
)

// SalesHandler serves the sales log and invoices.
type SalesHandler struct {
	responder
	sales ports.SalesService
	queue ports.TaskQueue
}

func NewSalesHandler(sales ports.SalesService, queue ports.TaskQueue, language string, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		responder: newResponder(logger.With(slog.String("handler", "sales")), language),
		sales:     sales,
		queue:     queue,
	}
}

// History handles GET /api/v1/sales?limit=
func (h *SalesHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	history, err := h.sales.History(r.Context(), limit)
	if err != nil {
		h.respondDomainError(w, r, "load sales history", err)
		return
	}

	h.respondJSON(w, http.StatusOK, history)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}

	record, err := h.sales.Get(logger.WithSaleID(r.Context(), saleID), saleID)
	if err != nil {
		h.respondDomainError(w, r, "get sale", err)
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// Invoice handles GET /api/v1/sales/{id}/invoice?lang=&currency=
// and answers with the rendered plain-text invoice.
func (h *SalesHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}

	text, err := h.sales.Invoice(logger.WithSaleID(r.Context(), saleID), saleID, invoiceSettings(r))
	if err != nil {
		h.respondDomainError(w, r, "render invoice", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%d.txt", saleID))
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// PrintInvoice handles POST /api/v1/sales/{id}/invoice/print
func (h *SalesHandler) PrintInvoice(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	ctx := logger.WithSaleID(r.Context(), saleID)

	if _, err := h.sales.Get(ctx, saleID); err != nil {
		h.respondDomainError(w, r, "get sale", err)
		return
	}

	settings := invoiceSettings(r)
	taskID, err := h.queue.Enqueue(ctx, workers.TypeInvoicePrint, workers.InvoicePayload{
		SaleID:   saleID,
		Language: settings.Language,
		Currency: settings.Currency,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to queue invoice print", slog.String("error", err.Error()))
		h.respondError(w, http.StatusServiceUnavailable, "Failed to queue invoice print")
		return
	}

	h.respondJSON(w, http.StatusAccepted, TaskResponse{
		TaskID:  taskID,
		Status:  "queued",
		Message: "Invoice print has been queued",
	})
}

func (h *SalesHandler) saleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	saleID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || saleID <= 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid sale ID")
		return 0, false
	}
	return saleID, true
}

func invoiceSettings(r *http.Request) domain.AppSettings {
	return domain.AppSettings{
		Language: strings.ToLower(r.URL.Query().Get("lang")),
		Currency: strings.ToUpper(r.URL.Query().Get("currency")),
	}
}

// TaskResponse acknowledges queued background work.
type TaskResponse struct {
	TaskID  string `json:"task_id,omitempty"`
	JobID   string `json:"job_id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
