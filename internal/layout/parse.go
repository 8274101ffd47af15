package layout

// parse.go provides field parsers shared by all layouts.
//
// These handle the messy reality of vendor exports: zero-padded numerics
// with explicit signs, 8-digit and slash-delimited dates, 4-digit clock
// times, currency and unit suffixes. Every parser reports absence through
// its bool result instead of an error; the layout decides whether an
// absent value fails the row.

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseDate parses a transaction date in any of the accepted shapes:
// 8-digit YYYYMMDD, or 3-part strings delimited by '/' or '-' where a
// 2-digit year means 20YY. Anything else, including impossible calendar
// dates, is absent.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseNumericDate(s); ok {
		return t, true
	}
	return parseDelimitedDate(s)
}

// parseNumericDate handles the compact 8-digit form. Non-8-digit or
// non-numeric input is absent, never an error.
func parseNumericDate(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}
	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[4:6])
	day, _ := strconv.Atoi(s[6:8])
	return makeDate(year, month, day)
}

// parseDelimitedDate handles YYYY/MM/DD, YY/MM/DD and the dash variants.
func parseDelimitedDate(s string) (time.Time, bool) {
	sep := ""
	switch {
	case strings.Contains(s, "/"):
		sep = "/"
	case strings.Contains(s, "-"):
		sep = "-"
	default:
		return time.Time{}, false
	}

	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return time.Time{}, false
	}

	if year < 100 {
		year += 2000
	}
	return makeDate(year, month, day)
}

// makeDate validates that the components form a real calendar day.
// time.Date normalizes overflow (month 13 becomes January), so the result
// is checked against the inputs.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseClock parses a 4-digit HHMM time of day. Out-of-range hours or
// minutes are absent.
func ParseClock(s string) (ClockTime, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return ClockTime{}, false
	}
	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return ClockTime{}, false
	}
	minute, err := strconv.Atoi(s[2:4])
	if err != nil {
		return ClockTime{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, false
	}
	return ClockTime{Hour: hour, Minute: minute}, true
}

// decimalStrip removes the decoration vendors put around numerics:
// thousands separators, the yen symbol and liter suffix, an explicit
// leading '+', and zero padding.
func decimalStrip(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "円", "")
	s = strings.ReplaceAll(s, "Ｌ", "")
	s = strings.TrimSuffix(s, "L")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	s = strings.TrimLeft(s, "0")
	if neg {
		s = "-" + s
	}
	return s
}

// ParseDecimal normalizes a raw numeric field into a decimal value.
// A value that reduces to empty or a bare '-' after stripping is absent,
// not zero: padded all-zero fields mean "no value" in these exports.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = decimalStrip(s)
	if s == "" || s == "-" {
		return decimal.Decimal{}, false
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	} else if strings.HasPrefix(s, "-.") {
		s = "-0" + s[1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseInt parses an integer field after the same stripping rules.
// Unlike ParseDecimal, a plain zero is a meaningful value here (category
// and line-number columns legitimately hold 0).
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return int(d.IntPart()), true
}

// optionalDecimal adapts ParseDecimal to the pointer fields of Transaction.
func optionalDecimal(s string) *decimal.Decimal {
	d, ok := ParseDecimal(s)
	if !ok {
		return nil
	}
	return &d
}

// cleanCell trims whitespace and surrounding quotes from a raw cell.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
