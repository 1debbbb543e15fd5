package readers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	apperrors "charmcli/internal/errors"
	"charmcli/internal/files"
	"charmcli/internal/series"
)

const utf8BOM = "\ufeff"

// TableOptions controls how a CSV table is read
type TableOptions struct {
	// Comma is the field delimiter, ',' when zero
	Comma rune
	// SkipBadLines drops rows whose field count differs from the header
	SkipBadLines bool
	// SkipSepLine ignores a leading "SEP=" line written by spreadsheet tools
	SkipSepLine bool
	// TrimHeaderSpaces removes every space from column names
	TrimHeaderSpaces bool
}

// ReadTable reads a CSV file with a header row into a Table
func ReadTable(path string) (*series.Table, error) {
	return ReadTableWith(path, TableOptions{})
}

// ReadTableWith reads a CSV file with explicit options
func ReadTableWith(path string, opts TableOptions) (*series.Table, error) {
	r, err := files.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	defer r.Close()

	tbl, err := parseTable(r, opts)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", path), err)
	}
	return tbl, nil
}

func parseTable(r io.Reader, opts TableOptions) (*series.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	if opts.SkipSepLine && len(header) > 0 && strings.Contains(strings.ToUpper(header[0]), "SEP") {
		if header, err = cr.Read(); err != nil {
			return nil, err
		}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, utf8BOM)
		if opts.TrimHeaderSpaces {
			h = strings.ReplaceAll(h, " ", "")
		} else {
			h = strings.TrimSpace(h)
		}
		columns[i] = h
	}

	tbl := series.NewTable(columns...)
	line := 1
	for {
		record, err := cr.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if opts.SkipBadLines {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != len(columns) {
			if opts.SkipBadLines {
				continue
			}
			if len(record) < len(columns) {
				record = append(record, make([]string, len(columns)-len(record))...)
			}
		}
		tbl.Rows = append(tbl.Rows, record)
	}
	return tbl, nil
}

// ReadRecords decodes a CSV file into a slice of tagged structs
func ReadRecords(path string, out interface{}) error {
	r, err := files.Open(path)
	if err != nil {
		return notFound(path, err)
	}
	defer r.Close()

	if err := gocsv.Unmarshal(r, out); err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("failed to decode %s", path), err)
	}
	return nil
}

func notFound(path string, err error) error {
	return apperrors.NewAppError(apperrors.ErrTypeNotFound, fmt.Sprintf("cannot open %s", path), err)
}
