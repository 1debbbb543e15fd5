package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"charmcli/internal/series"
)

// Sheet is one worksheet of the summary workbook
type Sheet struct {
	Name  string
	Table *series.Table
}

// maxSheetName is the longest worksheet name Excel accepts
const maxSheetName = 31

// WriteWorkbook stores every table in its own worksheet. Numeric cells are
// written as numbers so they can be used in formulas.
func (w *CSVWriter) WriteWorkbook(filePath string, sheets []Sheet) error {
	fullPath := w.resolvePath(filePath)
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s has no sheets", fullPath)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheet.Name
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}

		if err := writeSheet(f, name, sheet.Table, header); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Wrote summary workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(sheets)))
	return nil
}

func writeSheet(f *excelize.File, name string, tbl *series.Table, headerStyle int) error {
	if tbl == nil {
		return nil
	}

	head := make([]interface{}, len(tbl.Columns))
	for i, c := range tbl.Columns {
		head[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	if len(tbl.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(tbl.Columns), 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", name, err)
		}
	}

	for r, row := range tbl.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = cellValue(c)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+1, name, err)
		}
	}
	return nil
}

// cellValue turns numeric strings into numbers and leaves the rest as text
func cellValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if len(s) > 1 && s[0] == '0' && !strings.Contains(s, ".") {
		// identifiers such as "01"
		return s
	}
	v := series.ParseFloat(s)
	if math.IsNaN(v) {
		return s
	}
	return v
}
