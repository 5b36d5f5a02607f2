package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/mcint/types"
)

// DefaultCheckEvery is how many samples are drawn between context checks.
const DefaultCheckEvery = 4096

// Partial is the private result of one evaluator.
type Partial struct {
	Sum      float64
	Samples  uint64
	Duration time.Duration
}

// Evaluator draws and evaluates the samples assigned to one worker.
//
// An Evaluator owns its Stream exclusively; nothing it accumulates is visible to any other
// component until Run returns.
type Evaluator struct {
	Stream     *Stream
	Integrand  types.Integrand
	Assigned   uint64
	CheckEvery uint64
}

// Run evaluates Assigned samples and returns their sum.
//
// A panicking integrand or a cancelled context fails the worker with
// types.ErrWorkerFailed; no partial sum is returned in that case.
//
// Parameters:
//   - ctx: Context polled every CheckEvery samples
//
// Returns:
//   - Partial: Sum of integrand values and the number of samples evaluated
//   - error: Wrapped types.ErrWorkerFailed on failure
func (e *Evaluator) Run(ctx context.Context) (p Partial, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p = Partial{}
			err = fmt.Errorf("%w: integrand panicked: %v", types.ErrWorkerFailed, r)
		}
	}()

	check := e.CheckEvery
	if check == 0 {
		check = DefaultCheckEvery
	}

	point := e.Stream.NewPoint()
	var sum float64
	for i := uint64(0); i < e.Assigned; i++ {
		if i%check == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Partial{}, fmt.Errorf("%w: %w", types.ErrWorkerFailed, ctxErr)
			}
		}
		e.Stream.Draw(point)
		sum += e.Integrand(point)
	}

	return Partial{Sum: sum, Samples: e.Assigned, Duration: time.Since(start)}, nil
}
