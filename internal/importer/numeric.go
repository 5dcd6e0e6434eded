package importer

// numeric.go coerces the messy numbers found in supplier sheets:
//   - currency symbols and units ("$1,234.50", "12 pcs")
//   - comma thousands separators
//   - accounting negatives "(123.45)"
//   - Excel formula prefixes (="value")
//
// Coercion never fails: anything that does not survive cleanup is zero.

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a cell to a decimal. Non-numeric input yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	var b strings.Builder
	seenDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		case r == '-' && !seenDigit:
			negative = true
		}
	}

	cleaned := b.String()
	if !seenDigit {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// MaxQuantity caps stock counts and thresholds.
const MaxQuantity = math.MaxInt32

var (
	maxQuantity = decimal.NewFromInt(MaxQuantity)
	minQuantity = maxQuantity.Neg()
)

// ParseQuantity converts a cell to a whole count, truncating fractions.
// Values beyond ±MaxQuantity saturate.
func ParseQuantity(s string) int {
	d := ParseAmount(s).Truncate(0)
	switch {
	case d.GreaterThan(maxQuantity):
		return MaxQuantity
	case d.LessThan(minQuantity):
		return -MaxQuantity
	}
	return int(d.IntPart())
}

// isNumeric reports whether the cell is a number once cleaned, such as
// "42", "$1,200" or "3.5". Used to keep prices out of the name scan.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" .,$€£%()-+", r):
		default:
			return false
		}
	}
	return digits > 0
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
