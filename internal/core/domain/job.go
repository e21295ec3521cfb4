// internal/core/domain/job.go
package domain

import "time"

// JobStatus is the lifecycle state of a background import job.
type JobStatus string

const (
	JobPending             JobStatus = "pending"
	JobProcessing          JobStatus = "processing"
	JobCompleted           JobStatus = "completed"
	JobCompletedWithErrors JobStatus = "completed_with_errors"
	JobFailed              JobStatus = "failed"
)

// JobKind says what an import job reads.
type JobKind string

const (
	JobImportExcel JobKind = "import_excel"
	JobImportPDF   JobKind = "import_pdf"
)

// ImportJob tracks a catalog import submitted over the API.
type ImportJob struct {
	ID          string       `json:"id"`
	Kind        JobKind      `json:"kind"`
	FileName    string       `json:"file_name"`
	Status      JobStatus    `json:"status"`
	Error       string       `json:"error,omitempty"`
	Result      *ImportStats `json:"result,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ImportStats is the outcome of a finished import.
type ImportStats struct {
	RowsRead       int      `json:"rows_read"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Errors         []string `json:"errors,omitempty"`
	ProcessingTime string   `json:"processing_time"`
}

// Done reports whether the job reached a final state.
func (j *ImportJob) Done() bool {
	switch j.Status {
	case JobCompleted, JobCompletedWithErrors, JobFailed:
		return true
	}
	return false
}

// ParsedCatalog is the product list read from an uploaded spreadsheet or
// price list. Rows that could not be read are reported in Errors and skipped.
type ParsedCatalog struct {
	Products []Product
	RowsRead int
	Errors   []string
}
