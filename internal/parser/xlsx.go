package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"sales-service/internal/models"
)

// SalesSheetName is preferred over the first sheet when a workbook has it
const SalesSheetName = "Sales"

// XLSXReader streams records from the first (or "Sales") sheet of a workbook
type XLSXReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header headerIndex
	width  int
	line   int
}

// NewXLSXReader opens the workbook and consumes its header row
func NewXLSXReader(r io.Reader) (*XLSXReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &models.MalformedInputError{Err: fmt.Errorf("failed to open xlsx: %w", err)}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, &models.InputError{Field: "header", Message: "workbook has no sheets"}
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if strings.EqualFold(s, SalesSheetName) {
			sheet = s
			break
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, &models.MalformedInputError{Err: fmt.Errorf("failed to read sheet %q: %w", sheet, err)}
	}

	x := &XLSXReader{file: f, rows: rows}
	headers, err := x.nextRow()
	if err == io.EOF {
		x.Close()
		return nil, &models.InputError{Field: "header", Message: "file is empty"}
	}
	if err != nil {
		x.Close()
		return nil, err
	}

	idx, err := buildHeaderIndex(headers)
	if err != nil {
		x.Close()
		return nil, err
	}
	x.header = idx
	x.width = len(headers)
	return x, nil
}

func (x *XLSXReader) nextRow() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, &models.MalformedInputError{Line: x.line + 1, Err: err}
		}
		return nil, io.EOF
	}
	x.line++
	cols, err := x.rows.Columns()
	if err != nil {
		return nil, &models.MalformedInputError{Line: x.line, Err: err}
	}
	return cols, nil
}

// Next returns the next non-blank row. Spreadsheet rows drop trailing empty
// cells, so only a row carrying values past the header width is malformed.
func (x *XLSXReader) Next() (models.RawRecord, error) {
	for {
		cells, err := x.nextRow()
		if err != nil {
			return models.RawRecord{}, err
		}
		for i := x.width; i < len(cells); i++ {
			if strings.TrimSpace(cells[i]) != "" {
				return models.RawRecord{}, &models.MalformedInputError{
					Line: x.line,
					Err:  fmt.Errorf("row has %d columns, header has %d", len(cells), x.width),
				}
			}
		}
		if rec, ok := x.header.record(x.line, cells); ok {
			return rec, nil
		}
	}
}

func (x *XLSXReader) Close() error {
	if x.rows != nil {
		x.rows.Close()
	}
	return x.file.Close()
}
