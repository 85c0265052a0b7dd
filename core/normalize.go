package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var reNonNumeric = regexp.MustCompile(`[^0-9,.\-]`)

// ParseNumber converts spreadsheet text into a float64. It never fails:
// empty, missing or unparseable input yields 0.
//
// Currency symbols, letters and grouping spaces are discarded. When both ','
// and '.' are present the rightmost one is the decimal separator and the other
// is treated as thousands grouping, so "1.250,75" and "1,250.75" both parse
// to 1250.75. A lone ',' is a decimal separator.
func ParseNumber(value string) float64 {
	s := cleanNumeric(value)
	if s == "" {
		return 0.0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// ParseDecimal is ParseNumber for callers doing money arithmetic.
func ParseDecimal(value string) decimal.Decimal {
	return decimal.NewFromFloat(ParseNumber(value))
}

// FormatNumber renders f in canonical '.'-decimal form with no grouping.
// ParseNumber(FormatNumber(f)) == f for every finite f.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cleanNumeric(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	s = reNonNumeric.ReplaceAllString(s, "")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		dec, thousands := ".", ","
		if lastComma > lastDot {
			dec, thousands = ",", "."
		}
		s = strings.ReplaceAll(s, thousands, "")
		s = strings.ReplaceAll(s, dec, ".")
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	return s
}
