package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// UnsupportedFileError is returned before any parsing when the upload's
// extension has no reader. Legacy .xls files fall in here.
type UnsupportedFileError struct {
	Ext string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported spreadsheet format %q (expected .xlsx, .xlsm or .csv)", e.Ext)
}

// Document is a fully read rectangular grid: row 0 is the header, the rest
// are data rows. Expected file sizes are small enough for one synchronous
// scan; nothing streams.
type Document struct {
	rows [][]string
}

// Open reads a spreadsheet from a filesystem path, dispatching on the
// extension. The first sheet of a workbook is used, matching the uploads
// this system receives.
func Open(path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return openExcel(path)
	case ".csv":
		return openCSV(path)
	default:
		return nil, &UnsupportedFileError{Ext: ext}
	}
}

// FromRows wraps an in-memory grid. Used by tests and anywhere rows arrive
// from something other than a file.
func FromRows(rows [][]string) *Document {
	return &Document{rows: rows}
}

func openExcel(path string) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %q has no sheets", filepath.Base(path))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return &Document{rows: rows}, nil
}

func openCSV(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return &Document{rows: rows}, nil
}

// Header returns the trimmed header cells (row 1 of the upload).
func (d *Document) Header() []string {
	if len(d.rows) == 0 {
		return nil
	}
	header := make([]string, len(d.rows[0]))
	for i, h := range d.rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return header
}

// DataRows returns every row after the header.
func (d *Document) DataRows() [][]string {
	if len(d.rows) < 2 {
		return nil
	}
	return d.rows[1:]
}
