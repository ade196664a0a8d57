package domain

import (
	"strconv"
	"strings"
	"time"
)

// Layouts seen across RTO spreadsheets. Day-first forms are listed before
// month-first ones because the source files are Indian.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"2006/01/02",
}

// excelEpoch is day zero of the 1900 date system (Excel's off-by-one for
// the fictitious 1900-02-29 is already folded in).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDateCell parses a spreadsheet date cell. Accepts the common textual
// layouts plus raw Excel serial numbers. Returns nil when the cell is blank
// or unparseable — a nil date is "absent", never an error.
func ParseDateCell(cell string) *time.Time {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	// Excel serial date, e.g. "45678" or "45678.5".
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 200000 {
		t := excelEpoch.AddDate(0, 0, int(serial))
		return &t
	}

	return nil
}

// DateString renders a date in its canonical wire form (YYYY-MM-DD), or ""
// for absent. Fingerprints depend on this form staying stable.
func DateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
