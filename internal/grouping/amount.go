package grouping

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a cell value to a decimal. Thousand separators and
// currency symbols are ignored; anything still non-numeric is zero with ok=false.
// A blank cell is zero with ok=true.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, true
	}
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '(', r == ')', unicode.Is(unicode.Sc, r):
		case unicode.IsLetter(r):
			// currency codes such as "USD 1,200.00"; letters mixed into digits fail below
			if b.Len() > 0 {
				return decimal.Zero, false
			}
		default:
			return decimal.Zero, false
		}
	}
	clean := normalizeSeparators(b.String())
	if clean == "" {
		return decimal.Zero, false
	}
	dec, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		dec = dec.Neg()
	}
	return dec, true
}

// normalizeSeparators turns "1.234,56" into "1234.56" and "1,234.56" into "1234.56".
func normalizeSeparators(s string) string {
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	if comma > dot && dot >= 0 {
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	}
	if comma > dot && strings.Count(s, ",") == 1 && len(s)-comma-1 != 3 {
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}
