package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportStatus represents the status of an import job
type ImportStatus string

const (
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusPartial    ImportStatus = "PARTIAL"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, integer, decimal, date
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// SalesImportTemplate returns the template definition for sales uploads
func SalesImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "sales",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: ColumnOrderID, Description: "External order identifier", Required: true, Type: "string", Example: "ORD-1001"},
			{Name: ColumnProductID, Description: "External product identifier", Required: true, Type: "string", Example: "P-42"},
			{Name: ColumnProductName, Description: "Product name", Required: true, Type: "string", Example: "UltraBoost Running Shoes"},
			{Name: ColumnCategory, Description: "Category name, created when missing", Required: true, Type: "string", Example: "Shoes"},
			{Name: ColumnRegion, Description: "Region name, created when missing", Required: true, Type: "string", Example: "North America"},
			{Name: ColumnDateOfSale, Description: "Sale date (YYYY-MM-DD or M/D/YYYY)", Required: true, Type: "date", Example: "2024-01-15"},
			{Name: ColumnQuantitySold, Description: "Units sold", Required: true, Type: "integer", Example: "2"},
			{Name: ColumnUnitPrice, Description: "Price per unit", Required: true, Type: "decimal", Example: "180.00"},
			{Name: ColumnDiscount, Description: "Discount applied to the line, 0 when empty", Required: false, Type: "decimal", Example: "10.00"},
			{Name: ColumnShippingCost, Description: "Order shipping cost, 0 when empty", Required: false, Type: "decimal", Example: "5.00"},
			{Name: ColumnPaymentMethod, Description: "Payment method", Required: false, Type: "string", Example: "Credit Card"},
			{Name: ColumnCustomerID, Description: "External customer identifier", Required: true, Type: "string", Example: "C-7"},
			{Name: ColumnCustomerName, Description: "Customer name", Required: true, Type: "string", Example: "John Smith"},
			{Name: ColumnCustomerEmail, Description: "Customer email", Required: false, Type: "string", Example: "john@example.com"},
			{Name: ColumnCustomerAddress, Description: "Customer address", Required: false, Type: "string", Example: "123 Main St, Anytown"},
		},
	}
}

// BatchResult represents the result of processing a single batch
type BatchResult struct {
	BatchNumber int        `json:"batchNumber"`
	StartLine   int        `json:"startLine"`
	EndLine     int        `json:"endLine"`
	Success     bool       `json:"success"`
	RowCount    int        `json:"rowCount"`
	SkippedRows int        `json:"skippedRows"`
	RetryCount  int        `json:"retryCount"`
	Stats       BatchStats `json:"stats"`
	Error       string     `json:"error,omitempty"`
	DurationMs  int64      `json:"durationMs"`
}

// ImportReport is returned to the caller once an upload has been processed
type ImportReport struct {
	ImportID         uuid.UUID            `json:"importId"`
	FileName         string               `json:"fileName"`
	Format           ImportFormat         `json:"format"`
	Status           ImportStatus         `json:"status"`
	TotalRows        int                  `json:"totalRows"`
	PersistedRows    int                  `json:"persistedRows"`
	InvalidRows      int                  `json:"invalidRows"`
	FailedRows       int                  `json:"failedRows"`
	TotalBatches     int                  `json:"totalBatches"`
	CommittedBatches int                  `json:"committedBatches"`
	FailedBatches    int                  `json:"failedBatches"`
	Stats            BatchStats           `json:"stats"`
	BatchResults     []BatchResult        `json:"batchResults,omitempty"`
	RowErrors        []RowValidationError `json:"rowErrors,omitempty"`
	FailedLineRanges []string             `json:"failedLineRanges,omitempty"`
	Error            string               `json:"error,omitempty"`
	ProcessingMs     int64                `json:"processingMs"`
	AvgBatchMs       int64                `json:"avgBatchMs"`
}

// HasFailures reports whether any row or batch was not persisted
func (r *ImportReport) HasFailures() bool {
	return r.FailedBatches > 0 || r.InvalidRows > 0 || r.Error != ""
}

// ResolveStatus derives the final status from the counters
func (r *ImportReport) ResolveStatus() ImportStatus {
	switch {
	case !r.HasFailures():
		return ImportStatusCompleted
	case r.CommittedBatches > 0:
		return ImportStatusPartial
	default:
		return ImportStatusFailed
	}
}

// ImportJob is the persisted record of one upload
type ImportJob struct {
	ID               uuid.UUID      `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	FileName         string         `json:"fileName" gorm:"column:file_name;type:varchar(255);not null"`
	Format           ImportFormat   `json:"format" gorm:"column:format;type:varchar(16);not null"`
	Status           ImportStatus   `json:"status" gorm:"column:status;type:varchar(32);not null;index"`
	TotalRows        int            `json:"totalRows" gorm:"column:total_rows;not null;default:0"`
	PersistedRows    int            `json:"persistedRows" gorm:"column:persisted_rows;not null;default:0"`
	InvalidRows      int            `json:"invalidRows" gorm:"column:invalid_rows;not null;default:0"`
	FailedRows       int            `json:"failedRows" gorm:"column:failed_rows;not null;default:0"`
	TotalBatches     int            `json:"totalBatches" gorm:"column:total_batches;not null;default:0"`
	CommittedBatches int            `json:"committedBatches" gorm:"column:committed_batches;not null;default:0"`
	FailedBatches    int            `json:"failedBatches" gorm:"column:failed_batches;not null;default:0"`
	FailedLineRanges pq.StringArray `json:"failedLineRanges" gorm:"column:failed_line_ranges;type:text[]"`
	BatchResults     datatypes.JSON `json:"batchResults,omitempty" gorm:"column:batch_results;type:jsonb"`
	RowErrors        datatypes.JSON `json:"rowErrors,omitempty" gorm:"column:row_errors;type:jsonb"`
	ErrorMessage     *string        `json:"errorMessage,omitempty" gorm:"column:error_message;type:text"`
	ProcessingMs     int64          `json:"processingMs" gorm:"column:processing_ms;not null;default:0"`
	CreatedAt        time.Time      `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt        time.Time      `json:"updatedAt" gorm:"column:updated_at"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty" gorm:"column:completed_at"`
}

func (ImportJob) TableName() string { return "import_jobs" }
