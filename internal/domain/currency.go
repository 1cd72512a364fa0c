package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies lists the currency codes whose smallest accounted unit
// has no fractional subdivision. Every other code is accounted in hundredths.
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"KRW": {},
	"VND": {},
	"IDR": {},
	"HUF": {},
	"CLP": {},
	"PYG": {},
}

// wholeEpsilon is the distance from an integer under which a 2-decimal amount
// is displayed without a fractional part
var wholeEpsilon = decimal.New(1, -3)

// NormalizeCurrency upper-cases and trims a currency code
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DecimalLimit returns the number of fractional digits allowed for a currency (0 or 2)
func DecimalLimit(code string) int32 {
	if _, ok := zeroDecimalCurrencies[NormalizeCurrency(code)]; ok {
		return 0
	}
	return 2
}

// ParseAmount parses a plain numeric token such as "12", "-3.5", ".5" or "12."
// It reports false for anything else, including exponent notation and a lone sign.
func ParseAmount(s string) (decimal.Decimal, bool) {
	if strings.ContainsAny(s, "eE ") {
		return decimal.Zero, false
	}
	trimmed := strings.TrimSuffix(s, ".")
	switch trimmed {
	case "", "-", "+":
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// ValidateAmountInput reports whether candidate is an acceptable (possibly
// partial) amount string for the currency.
// The empty string and a lone "." are accepted so that typing can begin.
func ValidateAmountInput(candidate, code string) bool {
	if candidate == "" || candidate == "." {
		return true
	}
	if _, ok := ParseAmount(candidate); !ok {
		return false
	}

	dot := strings.IndexByte(candidate, '.')
	if dot < 0 {
		return true
	}

	limit := DecimalLimit(code)
	if limit == 0 {
		return false
	}
	return len(candidate)-dot-1 <= int(limit)
}

// FormatAmount renders value for display in the given currency.
// Zero-decimal currencies are rounded to an integer. Two-decimal currencies
// drop the fractional part only when the value is (within 0.001) whole,
// otherwise they always show exactly two places.
func FormatAmount(value decimal.Decimal, code string) string {
	rounded := value.Round(0)
	if DecimalLimit(code) == 0 {
		return rounded.String()
	}

	if value.Sub(rounded).Abs().LessThan(wholeEpsilon) {
		return rounded.String()
	}
	return value.StringFixed(2)
}

// AmountEpsilon is the tolerance used when comparing two display-precision
// amounts in the given currency
func AmountEpsilon(code string) decimal.Decimal {
	if DecimalLimit(code) == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.New(1, -2)
}
