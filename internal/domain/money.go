package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMoneyCents parses a spreadsheet currency cell into integer minor
// units. Symbols, thousands separators and stray text are stripped; only
// digits, '.' and '-' survive. The second return is false when the cell is
// blank or unparseable — callers decide whether absent means "no value" or
// zero (see MoneyCentsOrZero).
func ParseMoneyCents(cell string) (int64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			b.WriteByte(c)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

// MoneyCentsOrZero is ParseMoneyCents for required-sum contexts: blank or
// unparseable cells count as zero.
func MoneyCentsOrZero(cell string) int64 {
	cents, _ := ParseMoneyCents(cell)
	return cents
}

// FormatMoneyCents renders minor units as a decimal major-unit string,
// e.g. 30000 -> "300.00", -150 -> "-1.50".
func FormatMoneyCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
