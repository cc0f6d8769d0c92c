// Package money converts decimal currency amounts to and from integer
// minor units. Every conversion quantizes to the currency's minor-unit
// grid first, using round-half-to-even, so the integer extraction that
// follows is exact rather than a float truncation.
package money

import (
	"fmt"

	"github.com/govalues/decimal"

	"github.com/noah-isme/backend-pos/internal/currency"
)

var pow10 = [...]int64{1, 10, 100, 1000}

// Quantize rounds d to the minor-unit grid of the given currency using
// round-half-to-even. Half-up would bias aggregates upward when applied
// across many lines; half-even stays unbiased.
func Quantize(code string, d decimal.Decimal) decimal.Decimal {
	return d.Rescale(currency.Exponent(code))
}

// ParseQuantize parses an exact decimal string and quantizes it to the
// currency grid. String input never passes through binary floating point.
func ParseQuantize(code, s string) (decimal.Decimal, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Quantize(code, d), nil
}

// QuantizeFloat quantizes a float64 amount. The float is converted through
// its shortest decimal string representation before any rounding happens,
// so binary representation error is not injected ahead of the quantization.
func QuantizeFloat(code string, f float64) (decimal.Decimal, error) {
	d, err := decimal.NewFromFloat64(f)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("money: convert float %v: %w", f, err)
	}
	return Quantize(code, d), nil
}

// ToMinor converts d to an integer count of the currency's minor units.
// The amount is quantized first; the subsequent extraction is exact.
func ToMinor(code string, d decimal.Decimal) (int64, error) {
	exp := currency.Exponent(code)
	q := d.Rescale(exp)
	whole, frac, ok := q.Int64(exp)
	if !ok {
		return 0, fmt.Errorf("money: amount %v overflows minor units of %s", d, code)
	}
	return whole*pow10[exp] + frac, nil
}

// FromMinor converts an integer count of minor units back to a decimal
// amount. Dividing an integer by a power of ten is exact in decimal, so
// no rounding is involved.
func FromMinor(code string, minor int64) decimal.Decimal {
	return decimal.MustNew(minor, currency.Exponent(code))
}
