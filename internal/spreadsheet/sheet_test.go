package spreadsheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestOpen_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.csv")
	content := "Vehicle Number,Total\nUK07TA1234,300\nUK05XX0001,150\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}

	header := doc.Header()
	if len(header) != 2 || header[0] != "Vehicle Number" {
		t.Fatalf("unexpected header: %v", header)
	}
	rows := doc.DataRows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(rows))
	}
	if rows[1][0] != "UK05XX0001" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestOpen_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "Vehicle Number")
	_ = f.SetCellValue(sheet, "B1", "Total")
	_ = f.SetCellValue(sheet, "A2", "UK07TA1234")
	_ = f.SetCellValue(sheet, "B2", 300)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	_ = f.Close()

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	rows := doc.DataRows()
	if len(rows) != 1 || rows[0][0] != "UK07TA1234" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	_, err := Open("legacy.xls")
	if err == nil {
		t.Fatal("expected an error for .xls")
	}
	var unsupported *UnsupportedFileError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFileError, got %T", err)
	}
	if unsupported.Ext != ".xls" {
		t.Fatalf("error names extension %q; want .xls", unsupported.Ext)
	}
}

func TestDocument_EmptyAndHeaderOnly(t *testing.T) {
	if rows := FromRows(nil).DataRows(); rows != nil {
		t.Fatalf("empty document should have no data rows, got %v", rows)
	}
	doc := FromRows([][]string{{"Vehicle Number"}})
	if rows := doc.DataRows(); rows != nil {
		t.Fatalf("header-only document should have no data rows, got %v", rows)
	}
}
