package reduce

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/arloliu/mcint/types"
)

// FanOut runs fn for every index in [0, n) concurrently and returns the results in index order.
//
// The first error cancels the context handed to the remaining tasks and is returned
// once all of them have exited. Results are only returned when every task succeeded.
//
// Parameters:
//   - ctx: Parent context
//   - n: Number of tasks, must be at least 1
//   - fn: Task body, receives the derived context and its index
//
// Returns:
//   - []T: Results, result i from task i
//   - error: types.ErrNoWorkers for n < 1, otherwise the first task error
func FanOut[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: fan-out needs at least one task, got %d", types.ErrNoWorkers, n)
	}

	results := make([]T, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := fn(gctx, i)
			if err != nil {
				return err
			}
			results[i] = v

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Sum adds the partial sums.
func Sum(partials []float64) float64 {
	if len(partials) == 0 {
		return 0
	}

	return floats.Sum(partials)
}

// Samples adds sample counts.
func Samples(counts []uint64) uint64 {
	var total uint64
	for _, c := range counts {
		total += c
	}

	return total
}
