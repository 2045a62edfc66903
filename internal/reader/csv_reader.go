package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var ErrNoHeader = errors.New("csv has no header row")

// CSVReader streams rows of a CSV document keyed by its header row.
type CSVReader struct {
	reader  *csv.Reader
	headers []string
}

func NewCSVReader(reader io.Reader) *CSVReader {
	csvReader := csv.NewReader(reader)
	// Ragged rows are handled per record instead of failing the whole read.
	csvReader.FieldsPerRecord = -1

	return &CSVReader{
		reader: csvReader,
	}
}

// Headers parses the header row on first use and returns it afterwards.
func (cr *CSVReader) Headers() ([]string, error) {
	if cr.headers != nil {
		return cr.headers, nil
	}

	headers, err := cr.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cr.headers = headers
	return cr.headers, nil
}

// Next returns the next data row, or io.EOF once the input is exhausted.
func (cr *CSVReader) Next() (Record, error) {
	headers, err := cr.Headers()
	if err != nil {
		return Record{}, err
	}

	row, err := cr.reader.Read()
	if err == io.EOF {
		return Record{}, io.EOF
	}
	if err != nil {
		return Record{}, fmt.Errorf("read csv row: %w", err)
	}

	line, _ := cr.reader.FieldPos(0)
	record := Record{
		Line:   line,
		Fields: make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		if i >= len(row) {
			break
		}
		record.Fields[h] = row[i]
	}

	return record, nil
}
