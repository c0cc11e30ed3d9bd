package parser

import (
	"encoding/csv"
	"errors"
	"io"

	"sales-service/internal/models"
)

// CSVReader streams records from a CSV stream with a header row
type CSVReader struct {
	reader *csv.Reader
	header headerIndex
}

// NewCSVReader reads and validates the header row
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.InputError{Field: "header", Message: "file is empty"}
	}
	if err != nil {
		return nil, malformed(err)
	}

	idx, err := buildHeaderIndex(headers)
	if err != nil {
		return nil, err
	}
	return &CSVReader{reader: reader, header: idx}, nil
}

// Next returns the next non-blank record. A row whose column count differs
// from the header fails with MalformedInputError.
func (c *CSVReader) Next() (models.RawRecord, error) {
	for {
		cells, err := c.reader.Read()
		if errors.Is(err, io.EOF) {
			return models.RawRecord{}, io.EOF
		}
		if err != nil {
			return models.RawRecord{}, malformed(err)
		}

		line, _ := c.reader.FieldPos(0)
		if rec, ok := c.header.record(line, cells); ok {
			return rec, nil
		}
	}
}

func (c *CSVReader) Close() error { return nil }

func malformed(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &models.MalformedInputError{Line: perr.StartLine, Err: perr.Err}
	}
	return &models.MalformedInputError{Err: err}
}
