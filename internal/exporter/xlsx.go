package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "fishstat/internal/errors"
)

// maxSheetName is the Excel limit on sheet name length
const maxSheetName = 31

// WriteWorkbook writes each table to its own sheet of an XLSX file.
// Rows are streamed so large long tables stay within memory limits.
func WriteWorkbook(path string, tables ...Table) error {
	if len(tables) == 0 {
		return apperrors.NewValidationError("workbook needs at least one table")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		name := sheetName(t.Name, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return apperrors.NewIOError("failed to name sheet", path, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return apperrors.NewIOError("failed to add sheet", path, err)
		}

		if err := writeSheet(f, name, t); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("failed to write sheet %q", name), path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewIOError("failed to create output directory", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewIOError("failed to save workbook", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	return sw.Flush()
}

func sheetName(name string, i int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", i+1)
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}
