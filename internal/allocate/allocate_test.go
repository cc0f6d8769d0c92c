package allocate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateEqualWeights(t *testing.T) {
	got := Allocate([]int64{100, 100, 100}, 100)
	require.Equal(t, []int64{34, 33, 33}, got)
}

func TestAllocateProportional(t *testing.T) {
	got := Allocate([]int64{1000, 1500, 2000}, 100)
	require.Equal(t, []int64{22, 33, 45}, got)
}

func TestAllocateZeroCases(t *testing.T) {
	require.Equal(t, []int64{0, 0, 0}, Allocate([]int64{0, 0, 0}, 500))
	require.Equal(t, []int64{0, 0}, Allocate([]int64{10, 20}, 0))
	require.Equal(t, []int64{}, Allocate([]int64{}, 100))
}

func TestAllocateZeroWeightGetsNothing(t *testing.T) {
	got := Allocate([]int64{50, 0, 50}, 101)
	require.Equal(t, int64(0), got[1])
	require.Equal(t, int64(101), Sum(got))
}

func TestAllocateSingleWeight(t *testing.T) {
	require.Equal(t, []int64{777}, Allocate([]int64{1}, 777))
}

func TestAllocateNegativeTotal(t *testing.T) {
	got := Allocate([]int64{100, 100, 100}, -100)
	require.Equal(t, []int64{-34, -33, -33}, got)
	require.Equal(t, int64(-100), Sum(got))
}

func TestAllocateNegativeWeightTreatedAsZero(t *testing.T) {
	got := Allocate([]int64{-5, 10}, 9)
	require.Equal(t, []int64{0, 9}, got)
}

func TestAllocateDeterministic(t *testing.T) {
	weights := []int64{17, 23, 5, 91, 4}
	first := Allocate(weights, 1009)
	second := Allocate(weights, 1009)
	require.Equal(t, first, second)
}

func TestAllocateTieBreakPrefersEarlierIndex(t *testing.T) {
	// Both lines have residual 0.5; the extra unit must go to index 0.
	got := Allocate([]int64{1, 1}, 3)
	require.Equal(t, []int64{2, 1}, got)
}

func TestAllocateLargeMagnitudes(t *testing.T) {
	// weight * total far exceeds 64 bits; exactness must survive.
	weights := []int64{1 << 61, (1 << 61) + 1, (1 << 61) + 3}
	total := int64(1<<62 + 12345)
	got := Allocate(weights, total)
	require.Equal(t, total, Sum(got))
}

// Regression guard: exact-sum must hold for arbitrary inputs, so a future
// "optimization" that rounds shares independently fails loudly here.
func TestAllocateRandomizedStress(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(12) + 1
		weights := make([]int64, n)
		for j := range weights {
			weights[j] = rng.Int63n(1_000_000)
		}
		total := rng.Int63n(10_000_000)
		got := Allocate(weights, total)
		require.Len(t, got, n)
		if Sum(weights) == 0 {
			require.Equal(t, int64(0), Sum(got), "case %d: zero weights must allocate nothing", i)
			continue
		}
		require.Equal(t, total, Sum(got), "case %d: weights=%v total=%d", i, weights, total)
		for j, part := range got {
			require.GreaterOrEqual(t, part, int64(0), "case %d index %d", i, j)
			if weights[j] == 0 {
				require.Equal(t, int64(0), part, "case %d: zero weight at %d", i, j)
			}
		}
	}
}
