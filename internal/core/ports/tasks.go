// internal/core/ports/tasks.go
package ports

import "context"

// TaskQueue enqueues background work and returns the task id.
type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string, payload any) (string, error)
}

// InvoicePrinter sends rendered invoice text to a printer.
type InvoicePrinter interface {
	Print(ctx context.Context, text string) error
}
