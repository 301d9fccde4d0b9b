package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/gingerhealthcare/profilegen/logging"
	"github.com/xuri/excelize/v2"
)

// loadWorkbook reads procedure rows from the first sheet of a .xlsx workbook.
func (l *Loader) loadWorkbook(path string) ([]ProcedureEntry, *LoadReport, error) {
	cleanPath := filepath.Clean(path)

	f, err := excelize.OpenFile(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook %s: %w", cleanPath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", cleanPath)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	report := &LoadReport{SourcePattern: "xlsx"}
	layout := defaultLayout()

	start := 0
	if len(rows) > 0 {
		if detected, ok := detectHeader(rows[0]); ok {
			layout = detected
			report.HeaderRow = true
			start = 1
		}
	}

	var entries []ProcedureEntry
	for _, row := range rows[start:] {
		report.TotalRows++
		entry, ok := rowToEntry(row, layout)
		if !ok {
			report.SkippedRows++
			continue
		}
		entries = append(entries, entry)
	}

	return entries, report, nil
}
