// Package invariant asserts that integer money components add up to the
// total they were derived from. A failure here means the allocator or one
// of its callers has a bug; it is never a user-facing condition.
package invariant

import "fmt"

// SumMismatchError reports components whose sum drifted from the expected
// total by more than the allowed tolerance.
type SumMismatchError struct {
	Got       int64
	Expected  int64
	Tolerance int64
}

// Error implements the error interface.
func (e *SumMismatchError) Error() string {
	return fmt.Sprintf("sum mismatch: components total %d, expected %d (tolerance %d)", e.Got, e.Expected, e.Tolerance)
}

// ValidateSum checks that components sum to expected within tolerance.
// Callers should treat a returned *SumMismatchError as fatal: it signals
// a broken invariant, not bad input.
func ValidateSum(components []int64, expected, tolerance int64) error {
	var got int64
	for _, c := range components {
		got += c
	}
	diff := got - expected
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return &SumMismatchError{Got: got, Expected: expected, Tolerance: tolerance}
	}
	return nil
}
