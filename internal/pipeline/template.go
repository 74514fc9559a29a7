package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"sdi/internal/dataset"
	"sdi/internal/util"
)

var (
	// ErrTemplateNotFound means the import template workbook is missing.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoHeadersMatched means no template header resolved to a data
	// column, so nothing may be written.
	ErrNoHeadersMatched = errors.New("no template headers matched the data columns")
)

// FillTemplate loads a fresh copy of the import template, maps its header
// row to the record columns by normalized name and writes one row per record
// from startRow downward. Blank values stay blank cells. The template file
// itself is never mutated; the caller saves the returned workbook wherever
// it belongs.
func FillTemplate(templatePath string, headerRow, startRow int, ds dataset.Dataset) (*excelize.File, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
	}

	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, err
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	mapping, err := mapHeaders(f, sheet, headerRow, ds.Columns)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, row := range ds.Rows {
		r := startRow + i
		for colIdx, field := range mapping {
			value := row[field]
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx, r)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}

	return f, nil
}

// mapHeaders maps 1-based column indexes to field names from the
// fixed header row, matching on normalized names so punctuation, case and
// spacing drift in the template do not break the export.
func mapHeaders(f *excelize.File, sheet string, headerRow int, columns []string) (map[int]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if headerRow > len(rows) {
		return nil, ErrNoHeadersMatched
	}

	normCols := make(map[string]string, len(columns))
	for _, c := range columns {
		if n := util.NormalizeName(c); n != "" {
			normCols[n] = c
		}
	}

	mapping := make(map[int]string)
	for i, header := range rows[headerRow-1] {
		if field, ok := normCols[util.NormalizeName(header)]; ok {
			mapping[i+1] = field
		}
	}
	if len(mapping) == 0 {
		return nil, ErrNoHeadersMatched
	}
	return mapping, nil
}
