package mcint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/mcint/cluster"
	"github.com/arloliu/mcint/internal/lifecycle"
	"github.com/arloliu/mcint/partition"
	"github.com/arloliu/mcint/reduce"
	"github.com/arloliu/mcint/sampler"
)

// Invocation is one integration request moving through the lifecycle.
//
// The staged methods must be called in order: Validate, Prepare, Partition, Sample,
// Combine, Finalize. Each one checks the current state, so a stage can neither be
// skipped nor repeated, and nothing runs once the invocation reached Finalized or Failed.
// Engine.Integrate and Engine.Participate drive the whole sequence; the stages are exported
// for callers that want to observe or interleave work between them.
type Invocation struct {
	id     string
	params ParameterSet
	engine *Engine
	sm     *lifecycle.StateMachine

	fn      Integrand
	volume  float64
	sampler *sampler.Sampler
	shares  []uint64
	local   Contribution
	total   Contribution
}

// NewInvocation creates an invocation in StateCreated. An empty id gets a fresh UUID.
func (e *Engine) NewInvocation(id string, params ParameterSet) *Invocation {
	if id == "" {
		id = newInvocationID()
	}

	return &Invocation{
		id:     id,
		params: params.Clone(),
		engine: e,
		sm:     lifecycle.New(id, e.logger, e.metrics, e.hooks),
	}
}

// ID returns the invocation ID.
func (inv *Invocation) ID() string { return inv.id }

// State returns the current lifecycle state.
func (inv *Invocation) State() State { return inv.sm.State() }

// Err returns the error that failed the invocation, if any.
func (inv *Invocation) Err() error { return inv.sm.Err() }

// Subscribe streams lifecycle states until the invocation finishes.
func (inv *Invocation) Subscribe() (<-chan State, func()) { return inv.sm.Subscribe() }

// Abort fails the invocation with cause.
func (inv *Invocation) Abort(ctx context.Context, cause error) error {
	return inv.sm.Fail(ctx, cause)
}

// Validate checks the bounds and resolves the integrand.
//
// Returns:
//   - error: ErrInvalidBounds, ErrNoDimensions, ErrUnknownIntegrand or
//     ErrIntegrandNotSerializable; the invocation is Failed in every case
func (inv *Invocation) Validate(ctx context.Context) error {
	return inv.complete(ctx, StateCreated, StateValidated, func(context.Context) error {
		if err := inv.params.Validate(); err != nil {
			return err
		}

		fn, err := inv.resolve()
		if err != nil {
			return err
		}
		inv.fn = fn

		return nil
	})
}

func (inv *Invocation) resolve() (Integrand, error) {
	ref := inv.params.Integrand
	if inv.params.Func != nil {
		if inv.engine.comm.Size() > 1 {
			return nil, fmt.Errorf("%w: %d processes need a registered integrand name",
				ErrIntegrandNotSerializable, inv.engine.comm.Size())
		}

		return inv.params.Func, nil
	}
	if ref.Name == "" {
		return nil, fmt.Errorf("%w: no integrand name or function given", ErrUnknownIntegrand)
	}

	return inv.engine.registry.Resolve(ref)
}

// Prepare derives the integration volume and the per-dimension samplers.
func (inv *Invocation) Prepare(ctx context.Context) error {
	return inv.complete(ctx, StateValidated, StatePrepared, func(context.Context) error {
		inv.volume = sampler.Volume(inv.params.Bounds)
		inv.sampler = sampler.New(inv.params.Bounds)

		return nil
	})
}

// Partition computes this process's share of the budget and splits it across threads.
//
// The engine's partitioner is applied at both tiers, and the whole tree must cover the
// budget exactly.
func (inv *Invocation) Partition(ctx context.Context) error {
	return inv.complete(ctx, StatePrepared, StatePartitioned, func(context.Context) error {
		e := inv.engine
		rank := e.comm.Rank()

		tree, err := partition.NestedWith(e.partitioner, inv.params.Iterations, e.comm.Size(), e.cfg.Threads)
		if err != nil {
			return err
		}
		if !tree.Covered() {
			return fmt.Errorf("%w: %d workers were assigned %d samples for a budget of %d",
				ErrPartition, len(tree.Leaves()), partition.Sum(tree.Leaves()), inv.params.Iterations)
		}

		local := tree.Children[rank]
		inv.shares = local.Leaves()

		e.logger.Debug("budget partitioned",
			"invocation_id", inv.id,
			"rank", rank,
			"process_share", local.Share,
			"threads", len(inv.shares),
		)

		return nil
	})
}

// Sample runs one evaluator per thread and combines their sums inside the process.
//
// Threads share nothing but the read-only parameters: each draws from its own generator,
// seeded from the invocation ID, the rank and the thread index. The first failing thread
// cancels the others and fails the invocation.
func (inv *Invocation) Sample(ctx context.Context) error {
	return inv.enter(ctx, StatePartitioned, StateSampling, func(ctx context.Context) error {
		e := inv.engine
		rank := e.comm.Rank()
		start := time.Now()

		e.metrics.RecordActiveWorkers(len(inv.shares))
		defer e.metrics.RecordActiveWorkers(0)

		partials, err := reduce.FanOut(ctx, len(inv.shares), func(ctx context.Context, i int) (sampler.Partial, error) {
			ev := sampler.Evaluator{
				Stream:     inv.sampler.Stream(sampler.NewSource(sampler.Seed(inv.id, rank, i))),
				Integrand:  inv.fn,
				Assigned:   inv.shares[i],
				CheckEvery: e.cfg.CheckEvery,
			}

			p, err := ev.Run(ctx)
			if err != nil {
				return p, fmt.Errorf("thread %d: %w", i, err)
			}
			e.metrics.RecordSamples(p.Samples)
			e.metrics.RecordWorkerDuration("thread", p.Duration.Seconds())

			return p, nil
		})
		if err != nil {
			e.metrics.RecordReductionFailure("thread")
			e.logger.Error("sampling failed", "invocation_id", inv.id, "rank", rank, "error", err)

			return fmt.Errorf("%w: %w", ErrReductionFailure, err)
		}

		sums := make([]float64, len(partials))
		counts := make([]uint64, len(partials))
		for i, p := range partials {
			sums[i] = p.Sum
			counts[i] = p.Samples
		}
		inv.local = Contribution{Rank: rank, Sum: reduce.Sum(sums), Samples: reduce.Samples(counts)}
		e.metrics.RecordWorkerDuration("process", time.Since(start).Seconds())

		return nil
	})
}

// Combine submits this process's sum to the process tier.
//
// On the coordinator it waits for every rank and verifies that the combined sample count
// equals the budget. Elsewhere it returns once the contribution was delivered.
func (inv *Invocation) Combine(ctx context.Context) error {
	return inv.enter(ctx, StateSampling, StateCombining, func(ctx context.Context) error {
		e := inv.engine

		total, err := e.comm.Reduce(ctx, inv.id, inv.local)
		if err != nil {
			e.metrics.RecordReductionFailure("process")
			return err
		}
		if !cluster.IsCoordinator(e.comm) {
			return nil
		}

		if total.Samples != inv.params.Iterations {
			return fmt.Errorf("%w: %d samples evaluated for a budget of %d",
				ErrPartition, total.Samples, inv.params.Iterations)
		}
		inv.total = total

		return nil
	})
}

// Finalize produces the estimate on the coordinator and hands it to the result sink.
//
// On other ranks it only closes the lifecycle and returns a zero Estimate.
// A sink failure is returned together with the valid estimate.
func (inv *Invocation) Finalize(ctx context.Context) (Estimate, error) {
	e := inv.engine
	var est Estimate

	err := inv.complete(ctx, StateCombining, StateFinalized, func(context.Context) error {
		if !cluster.IsCoordinator(e.comm) {
			return nil
		}

		est = Estimate{
			InvocationID: inv.id,
			Value:        Finalize(inv.volume, inv.total.Sum, inv.params.Iterations),
			Volume:       inv.volume,
			Sum:          inv.total.Sum,
			Iterations:   inv.params.Iterations,
			Dimensions:   inv.params.Dimensions(),
			Processes:    e.comm.Size(),
			Threads:      e.cfg.Threads,
			Duration:     inv.sm.Elapsed(),
		}

		return nil
	})
	if err != nil || !cluster.IsCoordinator(e.comm) {
		return est, err
	}

	if hookErr := e.hooks.OnFinalized(ctx, est); hookErr != nil {
		e.logger.Warn("finalized hook failed", "invocation_id", inv.id, "error", hookErr)
	}
	if storeErr := e.sink.Store(ctx, est); storeErr != nil {
		e.logger.Error("storing estimate failed", "invocation_id", inv.id, "error", storeErr)
		return est, fmt.Errorf("store estimate: %w", storeErr)
	}

	return est, nil
}

// complete runs work in state from and then advances to to.
func (inv *Invocation) complete(ctx context.Context, from, to State, work func(context.Context) error) error {
	if err := inv.precondition(ctx, from); err != nil {
		return err
	}
	if err := work(ctx); err != nil {
		return inv.fail(ctx, err)
	}

	return inv.sm.Transition(ctx, to)
}

// enter advances from from to to and then runs work.
func (inv *Invocation) enter(ctx context.Context, from, to State, work func(context.Context) error) error {
	if err := inv.precondition(ctx, from); err != nil {
		return err
	}
	if err := inv.sm.Transition(ctx, to); err != nil {
		return err
	}
	if err := work(ctx); err != nil {
		return inv.fail(ctx, err)
	}

	return nil
}

func (inv *Invocation) precondition(ctx context.Context, from State) error {
	state := inv.sm.State()
	if state.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrInvocationTerminal, inv.id, state)
	}
	if state != from {
		return fmt.Errorf("%w: %s requires %s, invocation is %s", ErrInvalidTransition, inv.id, from, state)
	}
	if err := ctx.Err(); err != nil {
		return inv.fail(ctx, err)
	}

	return nil
}

// fail moves to Failed and returns cause. Hooks run with a context that outlives ctx.
func (inv *Invocation) fail(ctx context.Context, cause error) error {
	if err := inv.sm.Fail(context.WithoutCancel(ctx), cause); err != nil && !errors.Is(err, ErrInvocationTerminal) {
		inv.engine.logger.Warn("failing invocation", "invocation_id", inv.id, "error", err)
	}

	return cause
}
