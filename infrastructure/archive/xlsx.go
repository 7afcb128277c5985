package archive

import (
	"errors"
	"io"

	"github.com/luminate-data/leadsearch/domain/lead"
	"github.com/xuri/excelize/v2"
)

// ErrNoSheets indicates a workbook with no sheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// xlsxReader streams the first sheet of an XLSX member through the
// workbook's row iterator; the sheet is never fully materialized.
type xlsxReader struct {
	rc      io.ReadCloser
	file    *excelize.File
	rows    *excelize.Rows
	columns []string
	done    bool
}

func newXLSXReader(rc io.ReadCloser) (*xlsxReader, error) {
	file, err := excelize.OpenReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		_ = rc.Close()
		return nil, ErrNoSheets
	}

	rows, err := file.Rows(sheets[0])
	if err != nil {
		_ = file.Close()
		_ = rc.Close()
		return nil, err
	}

	r := &xlsxReader{rc: rc, file: file, rows: rows}

	if !rows.Next() {
		// Empty sheet: no header, no rows.
		r.done = true
		return r, rows.Error()
	}
	header, err := rows.Columns()
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	r.columns = header

	return r, nil
}

func (r *xlsxReader) Columns() []string {
	return r.columns
}

func (r *xlsxReader) Next() (lead.Record, error) {
	if r.done {
		return lead.Record{}, io.EOF
	}

	if !r.rows.Next() {
		r.done = true
		if err := r.rows.Error(); err != nil {
			return lead.Record{}, err
		}
		return lead.Record{}, io.EOF
	}

	values, err := r.rows.Columns()
	if err != nil {
		return lead.Record{}, err
	}

	return lead.NewRecord(r.columns, values), nil
}

func (r *xlsxReader) Close() error {
	err := r.rows.Close()
	if ferr := r.file.Close(); err == nil {
		err = ferr
	}
	if cerr := r.rc.Close(); err == nil {
		err = cerr
	}
	return err
}
