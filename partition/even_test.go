package partition

import (
	"testing"

	"github.com/arloliu/mcint/types"
	"github.com/stretchr/testify/require"
)

func TestEven_Split(t *testing.T) {
	t.Run("distributes remainder to the lowest indices", func(t *testing.T) {
		shares, err := NewEven().Split(10, 3)

		require.NoError(t, err)
		require.Equal(t, []uint64{4, 3, 3}, shares)
	})

	t.Run("divisible budget is split evenly", func(t *testing.T) {
		shares, err := NewEven().Split(82000, 4)

		require.NoError(t, err)
		require.Equal(t, []uint64{20500, 20500, 20500, 20500}, shares)
	})

	t.Run("more workers than samples", func(t *testing.T) {
		shares, err := NewEven().Split(2, 5)

		require.NoError(t, err)
		require.Equal(t, []uint64{1, 1, 0, 0, 0}, shares)
	})

	t.Run("zero budget", func(t *testing.T) {
		shares, err := NewEven().Split(0, 3)

		require.NoError(t, err)
		require.Equal(t, []uint64{0, 0, 0}, shares)
	})

	t.Run("returns error when no workers available", func(t *testing.T) {
		_, err := NewEven().Split(10, 0)

		require.ErrorIs(t, err, types.ErrNoWorkers)
	})
}

func TestSplit_ExactCoverage(t *testing.T) {
	for total := uint64(0); total <= 257; total++ {
		for workers := 1; workers <= 17; workers++ {
			shares, err := Split(total, workers)
			require.NoError(t, err)
			require.Len(t, shares, workers)
			require.Equal(t, total, Sum(shares), "total=%d workers=%d", total, workers)

			for i, s := range shares {
				require.Equal(t, Share(total, workers, i), s)
				require.LessOrEqual(t, s-shares[len(shares)-1], uint64(1))
			}
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	first, err := Split(1_000_003, 7)
	require.NoError(t, err)

	for range 10 {
		again, err := Split(1_000_003, 7)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSplit_LargeBudget(t *testing.T) {
	const total = ^uint64(0)

	shares, err := Split(total, 3)

	require.NoError(t, err)
	require.Equal(t, total, Sum(shares))
}
