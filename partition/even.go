package partition

import (
	"fmt"

	"github.com/arloliu/mcint/types"
)

// Even implements the exact-coverage split as a types.Partitioner.
type Even struct{}

var _ types.Partitioner = (*Even)(nil)

// NewEven creates a new even partitioner.
//
// Returns:
//   - *Even: Stateless partitioner
//
// Example:
//
//	p := partition.NewEven()
//	shares, _ := p.Split(10, 3) // [4 3 3]
func NewEven() *Even {
	return &Even{}
}

// Split distributes total across workers.
//
// Parameters:
//   - total: Sample budget
//   - workers: Number of workers, must be >= 1
//
// Returns:
//   - []uint64: Per-worker assignments summing exactly to total
//   - error: types.ErrNoWorkers when workers < 1
func (e *Even) Split(total uint64, workers int) ([]uint64, error) {
	return Split(total, workers)
}

// Share returns the assignment of worker index out of workers.
//
// Share is the closed form of Split and lets each tier compute its own share without
// materializing the whole vector. Callers must ensure 0 <= index < workers.
func Share(total uint64, workers, index int) uint64 {
	w := uint64(workers) //nolint:gosec // workers validated by callers
	share := total / w
	if uint64(index) < total%w { //nolint:gosec // index validated by callers
		share++
	}

	return share
}

// Split distributes total across workers using Share for every index.
func Split(total uint64, workers int) ([]uint64, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", types.ErrNoWorkers, workers)
	}

	shares := make([]uint64, workers)
	for i := range shares {
		shares[i] = Share(total, workers, i)
	}

	return shares, nil
}

// Sum adds assignments. Used to verify coverage.
func Sum(shares []uint64) uint64 {
	var total uint64
	for _, s := range shares {
		total += s
	}

	return total
}
