package spreadsheet

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is a canonical column name an import pipeline asks for, independent
// of how the uploader spelled the header.
type Field string

// Rule maps one canonical field to the header patterns that may carry it.
// The first header cell matching any pattern wins. Required fields abort the
// whole import when no column matches; optional fields simply go absent.
type Rule struct {
	Field    Field
	Patterns []*regexp.Regexp
	Required bool
}

// MustRule builds a Rule from case-insensitive regex sources; panics on a
// bad pattern so malformed alias tables fail at init, not per upload.
func MustRule(field Field, required bool, patterns ...string) Rule {
	rx := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		rx = append(rx, regexp.MustCompile("(?i)"+p))
	}
	return Rule{Field: field, Patterns: rx, Required: required}
}

// MissingColumnError reports a required field with no matching header. It is
// detected once, at header time, before any row is processed.
type MissingColumnError struct {
	Field Field
	Tried []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column for %s (expected a header matching one of: %s)",
		e.Field, strings.Join(e.Tried, ", "))
}

// ColumnIndex maps canonical fields to zero-based column positions. Fields
// with no matching header are simply not present.
type ColumnIndex map[Field]int

// MapHeader resolves the alias rules against a header row.
func MapHeader(header []string, rules []Rule) (ColumnIndex, error) {
	idx := make(ColumnIndex, len(rules))
	for _, rule := range rules {
		col := -1
	scan:
		for i, cell := range header {
			for _, rx := range rule.Patterns {
				if rx.MatchString(cell) {
					col = i
					break scan
				}
			}
		}
		if col < 0 {
			if rule.Required {
				tried := make([]string, 0, len(rule.Patterns))
				for _, rx := range rule.Patterns {
					tried = append(tried, rx.String())
				}
				return nil, &MissingColumnError{Field: rule.Field, Tried: tried}
			}
			continue
		}
		idx[rule.Field] = col
	}
	return idx, nil
}

// Cell fetches a field's cell from a data row. Absent columns and ragged
// short rows yield ("", false) rather than failing.
func (ix ColumnIndex) Cell(row []string, field Field) (string, bool) {
	col, ok := ix[field]
	if !ok || col >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[col]), true
}
