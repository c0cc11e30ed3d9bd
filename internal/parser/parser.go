// Package parser streams sales rows out of uploaded CSV and XLSX files.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"sales-service/internal/models"
)

// RecordReader yields raw records one at a time and returns io.EOF once the
// input is exhausted. It is not restartable.
type RecordReader interface {
	Next() (models.RawRecord, error)
	Close() error
}

// DetectFormat picks the import format from the uploaded file name
func DetectFormat(filename string) (models.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		return models.ImportFormatCSV, nil
	case ".xlsx":
		return models.ImportFormatXLSX, nil
	default:
		return "", &models.InputError{Field: "csvFile", Message: "only CSV and XLSX files are supported"}
	}
}

// Open returns the reader for the given format, with the header already consumed
func Open(format models.ImportFormat, r io.Reader) (RecordReader, error) {
	switch format {
	case models.ImportFormatCSV:
		return NewCSVReader(r)
	case models.ImportFormatXLSX:
		return NewXLSXReader(r)
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
}

// ReadAll drains a reader. Intended for small inputs and tests.
func ReadAll(rr RecordReader) ([]models.RawRecord, error) {
	var out []models.RawRecord
	for {
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
