package cluster

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/arloliu/mcint/types"
)

// Combine reduces exactly one contribution per rank into a single contribution.
//
// Sums are added in rank order so the combined value does not depend on arrival order.
//
// Returns:
//   - types.Contribution: Combined sum and sample count, attributed to rank 0
//   - error: types.ErrReductionFailure for a failed, missing, duplicated or out-of-range rank
func Combine(size int, contributions []types.Contribution) (types.Contribution, error) {
	if len(contributions) != size {
		return types.Contribution{}, fmt.Errorf("%w: %d of %d ranks contributed",
			types.ErrReductionFailure, len(contributions), size)
	}

	ordered := slices.Clone(contributions)
	slices.SortFunc(ordered, func(a, b types.Contribution) int { return a.Rank - b.Rank })

	sums := make([]float64, size)
	var samples uint64
	for i, c := range ordered {
		if c.Failed() {
			return types.Contribution{}, contributionError(c)
		}
		if c.Rank != i {
			return types.Contribution{}, fmt.Errorf("%w: unexpected contribution from rank %d", types.ErrReductionFailure, c.Rank)
		}
		sums[i] = c.Sum
		samples += c.Samples
	}

	return types.Contribution{Rank: 0, Sum: floats.Sum(sums), Samples: samples}, nil
}

func contributionError(c types.Contribution) error {
	return fmt.Errorf("%w: rank %d: %s", types.ErrReductionFailure, c.Rank, c.Err)
}

// IsCoordinator reports whether comm is rank 0.
func IsCoordinator(comm types.Communicator) bool {
	return comm.Rank() == 0
}

// FailedContribution builds the contribution a rank submits when it cannot finish its share.
func FailedContribution(rank int, err error) types.Contribution {
	msg := "unknown failure"
	if err != nil {
		msg = err.Error()
	}

	return types.Contribution{Rank: rank, Err: msg}
}
