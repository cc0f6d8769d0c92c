// Package allocate distributes an integer total across weighted lines so
// that the parts always sum back to the total exactly. It implements the
// largest-remainder (Hare-Niemeyer) method: floor every proportional
// share, then hand the leftover units to the lines with the largest
// fractional residuals.
package allocate

import (
	"math/big"
	"sort"
)

// Allocate splits total across weights proportionally. The returned slice
// has one entry per weight and always sums to total exactly.
//
// Lines with zero (or negative) weight receive zero, even when total is
// positive. A zero weight sum or zero total yields all zeros. Negative
// totals are allocated by magnitude and negated. Identical inputs always
// produce identical outputs: residual ties are broken by the lower
// original index, so the distribution is reproducible and auditable.
func Allocate(weights []int64, total int64) []int64 {
	result := make([]int64, len(weights))
	if len(weights) == 0 || total == 0 {
		return result
	}
	if total < 0 {
		for i, part := range Allocate(weights, -total) {
			result[i] = -part
		}
		return result
	}

	weightSum := new(big.Int)
	for _, w := range weights {
		if w > 0 {
			weightSum.Add(weightSum, big.NewInt(w))
		}
	}
	if weightSum.Sign() == 0 {
		return result
	}

	// share_i = w_i * total / sum(w). The product can exceed 64 bits for
	// realistic magnitudes, so the quotient and remainder are computed in
	// arbitrary precision rather than through a floating intermediate.
	type line struct {
		index     int
		remainder *big.Int
	}
	bigTotal := big.NewInt(total)
	lines := make([]line, 0, len(weights))
	allocated := int64(0)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		product := new(big.Int).Mul(big.NewInt(w), bigTotal)
		quo, rem := new(big.Int).QuoRem(product, weightSum, new(big.Int))
		result[i] = quo.Int64()
		allocated += result[i]
		lines = append(lines, line{index: i, remainder: rem})
	}

	// Flooring under-allocates by fewer units than there are lines. The
	// residuals share the denominator weightSum, so comparing remainders
	// orders them exactly.
	sort.SliceStable(lines, func(a, b int) bool {
		return lines[a].remainder.Cmp(lines[b].remainder) > 0
	})
	for i := int64(0); i < total-allocated; i++ {
		result[lines[i].index]++
	}
	return result
}

// Sum returns the sum of the given parts. It exists so callers asserting
// allocation invariants do not each reimplement the fold.
func Sum(parts []int64) int64 {
	var total int64
	for _, p := range parts {
		total += p
	}
	return total
}
