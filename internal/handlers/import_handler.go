package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"sales-service/internal/models"
	"sales-service/internal/parser"
	"sales-service/internal/services"
)

const (
	// UploadField is the multipart field carrying the sales file
	UploadField = "csvFile"
	// fallbackUploadField is accepted for clients using the generic name
	fallbackUploadField = "file"
)

// ImportService is the upload workflow used by ImportHandler
type ImportService interface {
	Import(ctx context.Context, input services.ImportInput) (*models.ImportReport, error)
	GetImport(ctx context.Context, id uuid.UUID) (*models.ImportJob, error)
}

// ImportHandler serves bulk sales uploads
type ImportHandler struct {
	service        ImportService
	maxUploadBytes int64
	logger         *logrus.Entry
}

// NewImportHandler creates a new import handler. maxUploadBytes <= 0 disables the limit.
func NewImportHandler(service ImportService, maxUploadBytes int64, logger *logrus.Logger) *ImportHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ImportHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.WithField("component", "import-handler"),
	}
}

// UploadSales imports a CSV or XLSX sales export
// @Summary Bulk upload sales data
// @Description Rows are validated and persisted in batches. Invalid rows are skipped and failed batches are listed in the report.
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param csvFile formData file true "Sales CSV or XLSX file"
// @Success 201 {object} models.UploadResponse "All rows persisted"
// @Success 207 {object} models.UploadResponse "Some rows or batches failed"
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 422 {object} models.UploadResponse "Nothing persisted"
// @Router /bulk [post]
func (h *ImportHandler) UploadSales(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := h.formFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "FILE_TOO_LARGE",
					Message: fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit),
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV file",
				Field:   UploadField,
			},
		})
		return
	}
	defer file.Close()

	format, err := parser.DetectFormat(header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
				Field:   UploadField,
			},
		})
		return
	}

	report, err := h.service.Import(c.Request.Context(), services.ImportInput{
		FileName: header.Filename,
		Format:   format,
		Reader:   file,
	})
	if err != nil {
		h.respondImportError(c, report, err)
		return
	}

	switch report.Status {
	case models.ImportStatusCompleted:
		c.JSON(http.StatusCreated, models.UploadResponse{Success: true, Message: "Data Uploaded", Data: report})
	case models.ImportStatusPartial:
		c.JSON(http.StatusMultiStatus, models.UploadResponse{Success: false, Message: "Data partially uploaded", Data: report})
	default:
		c.JSON(http.StatusUnprocessableEntity, models.UploadResponse{Success: false, Message: "No data could be uploaded", Data: report})
	}
}

// formFile reads the upload through gin so the engine's MaxMultipartMemory
// decides how much of it stays in memory
func (h *ImportHandler) formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	header, err := c.FormFile(UploadField)
	if errors.Is(err, http.ErrMissingFile) {
		header, err = c.FormFile(fallbackUploadField)
	}
	if err != nil {
		return nil, nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return file, header, nil
}

func (h *ImportHandler) respondImportError(c *gin.Context, report *models.ImportReport, err error) {
	var inputErr *models.InputError
	var malformed *models.MalformedInputError

	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_FILE", Message: inputErr.Message, Field: inputErr.Field},
			Report:  report,
		})
	case errors.As(err, &malformed):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "MALFORMED_FILE", Message: malformed.Error()},
			Report:  report,
		})
	default:
		h.logger.WithError(err).Error("Import aborted")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "IMPORT_FAILED", Message: "Import was aborted"},
			Report:  report,
		})
	}
}

// GetImport returns the persisted record of an upload
// @Summary Get import job
// @Tags Import
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} models.ImportJobResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /bulk/{id} [get]
func (h *ImportHandler) GetImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Invalid import ID", Field: "id"},
		})
		return
	}

	job, err := h.service.GetImport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "NOT_FOUND", Message: "Import not found"},
			})
			return
		}
		h.logger.WithError(err).WithField("importID", id).Error("Failed to load import job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Failed to load import"},
		})
		return
	}

	c.JSON(http.StatusOK, models.ImportJobResponse{Success: true, Data: job})
}

// GetImportTemplate returns the import template definition or file
// @Summary Get sales import template
// @Tags Import
// @Produce json
// @Param format query string false "csv, xlsx or json" default(json)
// @Success 200 {object} models.ImportTemplate
// @Router /bulk/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	template := models.SalesImportTemplate()

	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate writes the header row only
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=sales_import_template.csv")

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(headers); err != nil {
		h.logger.WithError(err).Warn("Failed to write CSV template")
	}
	writer.Flush()
}

// generateXLSXTemplate writes a Sales sheet with styled headers plus an
// Instructions sheet describing each column
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := parser.SalesSheetName
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		style := headerStyle
		if col.Required {
			headerText = col.Name + " *"
			style = requiredStyle
		}
		f.SetCellValue(sheetName, cell, headerText)
		f.SetCellStyle(sheetName, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	const instructions = "Instructions"
	f.NewSheet(instructions)
	f.SetCellValue(instructions, "A1", "Sales Import Instructions")
	f.SetCellValue(instructions, "A3", "Rows are imported in batches. Invalid rows are skipped and listed in the upload report.")
	f.SetCellValue(instructions, "A4", "Regions, categories, customers and products are created or updated from the row data.")
	f.SetSheetRow(instructions, "A6", &[]interface{}{"Column", "Description", "Required", "Type", "Example"})

	for i, col := range template.Columns {
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetSheetRow(instructions, fmt.Sprintf("A%d", i+7), &[]interface{}{
			col.Name, col.Description, required, col.Type, col.Example,
		})
	}
	f.SetColWidth(instructions, "A", "A", 25)
	f.SetColWidth(instructions, "B", "B", 60)
	f.SetColWidth(instructions, "C", "E", 15)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=sales_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Warn("Failed to write XLSX template")
	}
}
