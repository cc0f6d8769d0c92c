package tax

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/noah-isme/backend-pos/internal/money"
)

// Line is an order line entering tax computation. Rate is the
// product-specific tax rate; nil means the selling location's default
// rate applies.
type Line struct {
	ID        uuid.UUID
	UnitPrice decimal.Decimal
	Qty       int64
	Rate      *decimal.Decimal
}

// LineTax is the per-line tax in minor units. It overwrites any stale
// value previously stored for the line.
type LineTax struct {
	LineID   uuid.UUID
	TaxMinor int64
}

// Result aggregates per-line taxes. TotalMinor is defined as the sum of
// the line taxes and is never derived independently from the subtotal;
// that definition is what keeps line-level and order-level figures in
// agreement.
type Result struct {
	Currency   string
	Lines      []LineTax
	TotalMinor int64
}

var one = decimal.MustNew(1, 0)

// ComputeLineTaxes computes tax per line in minor units. discountFraction
// is the fraction of the subtotal removed by discounts, applied uniformly
// to every line before the rate. A nil defaultRate means the store has no
// selling-location tax configuration: the total is zero and no line
// outputs are produced.
func ComputeLineTaxes(code string, lines []Line, discountFraction decimal.Decimal, defaultRate *decimal.Decimal) (Result, error) {
	result := Result{Currency: code}
	if defaultRate == nil {
		return result, nil
	}

	factor, err := discountFactor(discountFraction)
	if err != nil {
		return Result{}, err
	}

	result.Lines = make([]LineTax, 0, len(lines))
	for _, l := range lines {
		minor, err := lineTaxMinor(code, l, factor, *defaultRate)
		if err != nil {
			return Result{}, fmt.Errorf("tax: line %s: %w", l.ID, err)
		}
		result.Lines = append(result.Lines, LineTax{LineID: l.ID, TaxMinor: minor})
		result.TotalMinor += minor
	}
	return result, nil
}

func lineTaxMinor(code string, l Line, factor, defaultRate decimal.Decimal) (int64, error) {
	if l.Qty <= 0 {
		return 0, nil
	}
	qty, err := decimal.New(l.Qty, 0)
	if err != nil {
		return 0, err
	}
	gross, err := l.UnitPrice.Mul(qty)
	if err != nil {
		return 0, err
	}
	discounted, err := gross.Mul(factor)
	if err != nil {
		return 0, err
	}
	discounted = money.Quantize(code, discounted)

	rate := defaultRate
	if l.Rate != nil {
		rate = *l.Rate
	}
	lineTax, err := discounted.Mul(rate)
	if err != nil {
		return 0, err
	}
	return money.ToMinor(code, money.Quantize(code, lineTax))
}

// discountFactor turns the removed fraction into the remaining multiplier,
// clamped to [0, 1] so out-of-range inputs degrade to no-discount or
// fully-discounted rather than producing negative prices.
func discountFactor(fraction decimal.Decimal) (decimal.Decimal, error) {
	if fraction.IsNeg() {
		return one, nil
	}
	if fraction.Cmp(one) >= 0 {
		return decimal.Decimal{}, nil
	}
	factor, err := one.Sub(fraction)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("tax: discount factor: %w", err)
	}
	return factor, nil
}
