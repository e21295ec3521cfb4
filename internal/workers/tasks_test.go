package workers_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pos-engine/internal/workers"
	"github.com/ammerola/pos-engine/test/helpers"
)

func TestQueueFor(t *testing.T) {
	tests := []struct {
		taskType string
		want     string
	}{
		{workers.TypeInvoicePrint, workers.QueueCritical},
		{workers.TypeInvoiceArchive, workers.QueueCritical},
		{workers.TypeLowStockAlert, workers.QueueDefault},
		{workers.TypeExport, workers.QueueDefault},
		{workers.TypeImportExcel, workers.QueueDefault},
		{workers.TypeImportPDF, workers.QueueDefault},
		{workers.TypeCleanupTempFiles, workers.QueueLow},
		{workers.TypeCleanupOldJobs, workers.QueueLow},
		{workers.TypeRefreshAnalytics, workers.QueueLow},
	}

	for _, tt := range tests {
		t.Run(tt.taskType, func(t *testing.T) {
			assert.Equal(t, tt.want, workers.QueueFor(tt.taskType))
		})
	}
}

func TestTaskOptions_ImportsAreNotRetried(t *testing.T) {
	tests := []struct {
		name      string
		taskType  string
		wantRetry int
	}{
		{name: "invoice_uses_configured_retry", taskType: workers.TypeInvoiceArchive, wantRetry: 5},
		{name: "excel_import_runs_once", taskType: workers.TypeImportExcel, wantRetry: 0},
		{name: "pdf_import_runs_once", taskType: workers.TypeImportPDF, wantRetry: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var retry = -1
			for _, opt := range workers.TaskOptions(tt.taskType, 5) {
				if opt.Type() == asynq.MaxRetryOpt {
					retry = opt.Value().(int)
				}
			}
			assert.Equal(t, tt.wantRetry, retry)
		})
	}
}

func TestNewTask_EncodesPayload(t *testing.T) {
	task, err := workers.NewTask(workers.TypeInvoicePrint, workers.InvoicePayload{SaleID: 12, Language: "fr"})
	require.NoError(t, err)
	assert.Equal(t, workers.TypeInvoicePrint, task.Type())

	var decoded workers.InvoicePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, int64(12), decoded.SaleID)
	assert.Equal(t, "fr", decoded.Language)
}

func TestQueue_Enqueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	queue := workers.NewQueue(client, 3, helpers.TestLogger())

	id, err := queue.Enqueue(context.Background(), workers.TypeInvoiceArchive, workers.InvoicePayload{SaleID: 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	pending, err := mr.List("asynq:{critical}:pending")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, pending)
}

func TestQueue_Enqueue_BadPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	queue := workers.NewQueue(client, 3, helpers.TestLogger())

	_, err := queue.Enqueue(context.Background(), workers.TypeExport, map[string]any{"bad": make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal")
}
