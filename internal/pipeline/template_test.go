package pipeline

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"sdi/internal/dataset"
)

const (
	testHeaderRow = 9
	testStartRow  = 10
)

// mkTemplate writes a template workbook with the given labels on the fixed
// header row.
func mkTemplate(t *testing.T, headers []string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, testHeaderRow)
		_ = f.SetCellValue(sheet, cell, h)
	}
	path := filepath.Join(t.TempDir(), "template.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFillTemplateMatchesNormalizedHeaders(t *testing.T) {
	path := mkTemplate(t, []string{"QR  code!!", "PROPERTY", "Unknown Header"})

	ds := dataset.Dataset{
		Columns: []string{"QR Code", "Property"},
		Rows: []dataset.Row{
			{"QR Code": "Q1", "Property": "B1"},
			{"QR Code": "Q2", "Property": "B1"},
		},
	}

	f, err := FillTemplate(path, testHeaderRow, testStartRow, ds)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	got, _ := f.GetCellValue(sheet, "A10")
	if got != "Q1" {
		t.Errorf("A10 = %q", got)
	}
	got, _ = f.GetCellValue(sheet, "B11")
	if got != "B1" {
		t.Errorf("B11 = %q", got)
	}
	got, _ = f.GetCellValue(sheet, "C10")
	if got != "" {
		t.Errorf("unmapped column written: C10 = %q", got)
	}
}

func TestFillTemplateBlankStaysBlank(t *testing.T) {
	path := mkTemplate(t, []string{"QR Code", "Serial Number"})

	ds := dataset.Dataset{
		Columns: []string{"QR Code", "Serial Number"},
		Rows:    []dataset.Row{{"QR Code": "Q1", "Serial Number": ""}},
	}

	f, err := FillTemplate(path, testHeaderRow, testStartRow, ds)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	got, _ := f.GetCellValue(sheet, "B10")
	if got != "" {
		t.Fatalf("B10 = %q, want blank cell", got)
	}
}

func TestFillTemplateNoHeadersMatched(t *testing.T) {
	path := mkTemplate(t, []string{"Completely", "Different", "Schema"})

	ds := dataset.Dataset{
		Columns: []string{"QR Code"},
		Rows:    []dataset.Row{{"QR Code": "Q1"}},
	}

	_, err := FillTemplate(path, testHeaderRow, testStartRow, ds)
	if !errors.Is(err, ErrNoHeadersMatched) {
		t.Fatalf("err = %v, want ErrNoHeadersMatched", err)
	}
}

func TestFillTemplateMissingFile(t *testing.T) {
	ds := dataset.Dataset{Columns: []string{"QR Code"}}
	_, err := FillTemplate(filepath.Join(t.TempDir(), "missing.xlsx"), testHeaderRow, testStartRow, ds)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}
