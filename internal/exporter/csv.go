package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"

	"charmcli/internal/config"
	"charmcli/internal/files"
	"charmcli/internal/readers"
	"charmcli/internal/series"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options. Paths ending
// in .gz are compressed and cannot be appended to.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if options.Append && files.IsGzip(fullPath) {
		return fmt.Errorf("cannot append to compressed file %s", fullPath)
	}

	var out io.WriteCloser
	if options.Append {
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		out = file
	} else {
		file, err := files.Create(fullPath)
		if err != nil {
			return err
		}
		out = file
	}

	if options.BOMPrefix && !options.Append {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			out.Close()
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			out.Close()
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			out.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteTable writes a table with its header
func (w *CSVWriter) WriteTable(filePath string, tbl *series.Table) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: tbl.Columns,
		Records: tbl.Rows,
	})
}

// WriteRecords writes a slice of csv-tagged structs
func (w *CSVWriter) WriteRecords(filePath string, records interface{}) error {
	fullPath := w.resolvePath(filePath)

	out, err := files.Create(fullPath)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(records, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode %s: %w", fullPath, err)
	}

	slog.Info("Wrote CSV records", slog.String("full_path", fullPath))
	return out.Close()
}

// UpsertTable merges tbl into an existing table at filePath. Existing rows
// whose key column matches a new row are replaced, and the result is sorted
// by the key. A missing file is created.
func (w *CSVWriter) UpsertTable(filePath string, tbl *series.Table, key string, less func(a, b string) bool) error {
	fullPath := w.resolvePath(filePath)
	ki := tbl.Index(key)
	if ki < 0 {
		return fmt.Errorf("key column %q not in table", key)
	}

	merged := series.NewTable(tbl.Columns...)
	replaced := make(map[string]bool, tbl.Len())
	for _, row := range tbl.Rows {
		replaced[row[ki]] = true
	}

	if files.NewManager("").FileExists(fullPath) {
		existing, err := readers.ReadTable(fullPath)
		if err != nil {
			return err
		}
		if len(existing.Columns) == len(tbl.Columns) && existing.Index(key) == ki {
			for _, row := range existing.Rows {
				if !replaced[row[ki]] {
					merged.Rows = append(merged.Rows, row)
				}
			}
		} else {
			slog.Warn("replacing table with a different layout", slog.String("full_path", fullPath))
		}
	}
	merged.Rows = append(merged.Rows, tbl.Rows...)

	if less != nil {
		sort.SliceStable(merged.Rows, func(i, j int) bool { return less(merged.Rows[i][ki], merged.Rows[j][ki]) })
	}
	return w.WriteTable(fullPath, merged)
}

// UpsertRecords is UpsertTable for a slice of csv-tagged structs
func (w *CSVWriter) UpsertRecords(filePath string, records interface{}, key string, less func(a, b string) bool) error {
	data, err := gocsv.MarshalBytes(records)
	if err != nil {
		return fmt.Errorf("failed to encode records for %s: %w", filePath, err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to re-read records for %s: %w", filePath, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("records for %s have no header", filePath)
	}
	tbl := series.NewTable(rows[0]...)
	tbl.Rows = rows[1:]
	return w.UpsertTable(filePath, tbl, key, less)
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   io.WriteCloser
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	slog.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	file, err := files.Create(fullPath)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	s.rows++
	return s.writer.Write(record)
}

// Rows is the number of records written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath resolves a relative path against the statistics folder
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.Stats(filePath)
}
