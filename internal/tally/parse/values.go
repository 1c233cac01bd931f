// Package parse – value cleanup helpers
//
// Numeric fields can carry currency symbols, thousands separators, and stray
// whitespace; date fields arrive as 8-digit YYYYMMDD strings. The helpers
// here normalize both without ever producing NaN or panicking on junk.
package parse

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Amount parses a ledger figure after stripping every character except
// digits, sign, and decimal point. Unparseable input becomes 0, never NaN.
// The sign is preserved; use AbsAmount for monetary display values.
func Amount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// AbsAmount parses like Amount and reports the absolute value. Tally encodes
// debit/credit via sign, which is meaningless for business display.
func AbsAmount(s string) float64 { return math.Abs(Amount(s)) }

// DisplayDate converts an 8-digit YYYYMMDD value to DD/MM/YYYY. Input of any
// other shape passes through unchanged rather than failing.
func DisplayDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return s
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}

// qtyParts splits a Tally quantity such as "5 Nos" into the numeric part and
// the unit. A value without a unit comes back with an empty unit.
func qtyParts(s string) (qty, unit string) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// orDefault substitutes the given sentinel for blank text.
func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
