package archive

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/luminate-data/leadsearch/domain/lead"
)

// csvReader streams a CSV member. The first row is the header; rows may
// be ragged, short rows leave trailing fields empty.
type csvReader struct {
	rc      io.ReadCloser
	reader  *csv.Reader
	columns []string
	done    bool
}

func newCSVReader(rc io.ReadCloser) (*csvReader, error) {
	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// Empty member: no header, no rows.
		return &csvReader{rc: rc, reader: reader, done: true}, nil
	}
	if err != nil {
		_ = rc.Close()
		return nil, err
	}

	return &csvReader{rc: rc, reader: reader, columns: header}, nil
}

func (r *csvReader) Columns() []string {
	return r.columns
}

func (r *csvReader) Next() (lead.Record, error) {
	if r.done {
		return lead.Record{}, io.EOF
	}

	row, err := r.reader.Read()
	if errors.Is(err, io.EOF) {
		r.done = true
		return lead.Record{}, io.EOF
	}
	if err != nil {
		return lead.Record{}, err
	}

	return lead.NewRecord(r.columns, row), nil
}

func (r *csvReader) Close() error {
	return r.rc.Close()
}
