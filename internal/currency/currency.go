package currency

import "strings"

// DefaultExponent is the number of minor-unit decimal places assumed for
// currency codes missing from the table. Unknown codes are reference-data
// gaps, not caller errors, so the lookup stays permissive.
const DefaultExponent = 2

// exponents maps ISO 4217 codes to the number of decimal digits in one
// minor unit. Only codes that deviate from two decimals, plus the common
// two-decimal currencies, are listed explicitly.
var exponents = map[string]int{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"CAD": 2,
	"AUD": 2,
	"CHF": 2,
	"CNY": 2,
	"INR": 2,

	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,

	"KWD": 3,
	"BHD": 3,
	"OMR": 3,
	"JOD": 3,
	"TND": 3,
}

// Exponent returns the number of decimal digits used to represent the
// minor unit of the given currency code. The lookup is case-insensitive
// and falls back to DefaultExponent for unrecognised codes.
func Exponent(code string) int {
	if exp, ok := exponents[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return exp
	}
	return DefaultExponent
}
