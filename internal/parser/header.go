package parser

import (
	"fmt"
	"strings"

	"sales-service/internal/models"
)

// headerIndex maps canonical column names to their position in a source row
type headerIndex map[string]int

// normalizeHeader folds a header cell for matching: trims, strips a UTF-8
// BOM and the template's required marker, lowercases.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, " *")
	return strings.ToLower(strings.TrimSpace(h))
}

// buildHeaderIndex resolves the header row against the known columns.
// Unknown columns are ignored; missing required columns are an InputError.
func buildHeaderIndex(headers []string) (headerIndex, error) {
	known := make(map[string]string, len(models.SourceColumns())+len(models.ColumnAliases))
	for _, col := range models.SourceColumns() {
		known[normalizeHeader(col)] = col
	}
	for alias, col := range models.ColumnAliases {
		known[normalizeHeader(alias)] = col
	}

	idx := make(headerIndex)
	for i, h := range headers {
		col, ok := known[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := idx[col]; dup {
			return nil, &models.InputError{Field: "header", Message: fmt.Sprintf("column %q appears more than once", col)}
		}
		idx[col] = i
	}

	var missing []string
	for _, col := range models.SalesImportTemplate().Columns {
		if !col.Required {
			continue
		}
		if _, ok := idx[col.Name]; !ok {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &models.InputError{
			Field:   "header",
			Message: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return idx, nil
}

// record builds a RawRecord from a source row. The boolean is false when
// every mapped cell is blank.
func (h headerIndex) record(line int, cells []string) (models.RawRecord, bool) {
	values := make(map[string]string, len(h))
	blank := true
	for col, i := range h {
		if i >= len(cells) {
			continue
		}
		v := strings.TrimSpace(cells[i])
		if v != "" {
			blank = false
		}
		values[col] = v
	}
	return models.RawRecord{Line: line, Values: values}, !blank
}
