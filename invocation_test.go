package mcint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mcint/integrand"
)

func squareParams(iterations uint64) ParameterSet {
	return ParameterSet{
		Integrand:  IntegrandRef{Name: integrand.Square},
		Bounds:     []Bound{{Low: 0, High: 3}},
		Iterations: iterations,
	}
}

func runStages(ctx context.Context, inv *Invocation) (Estimate, error) {
	for _, stage := range []func(context.Context) error{inv.Validate, inv.Prepare, inv.Partition, inv.Sample, inv.Combine} {
		if err := stage(ctx); err != nil {
			return Estimate{}, err
		}
	}

	return inv.Finalize(ctx)
}

func TestInvocation_StagedLifecycle(t *testing.T) {
	engine := newLocalEngine(t)
	ctx := context.Background()

	inv := engine.NewInvocation("", squareParams(10_000))
	require.NotEmpty(t, inv.ID())
	require.Equal(t, StateCreated, inv.State())

	states, unsubscribe := inv.Subscribe()
	defer unsubscribe()

	est, err := runStages(ctx, inv)
	require.NoError(t, err)
	require.Equal(t, StateFinalized, inv.State())
	require.NoError(t, inv.Err())
	require.Equal(t, inv.ID(), est.InvocationID)
	require.InEpsilon(t, 9.0, est.Value, 0.05)

	var seen []State
	for s := range states {
		seen = append(seen, s)
	}
	require.Equal(t, []State{
		StateCreated, StateValidated, StatePrepared, StatePartitioned,
		StateSampling, StateCombining, StateFinalized,
	}, seen)
}

func TestInvocation_StagesCannotBeSkipped(t *testing.T) {
	engine := newLocalEngine(t)
	ctx := context.Background()

	inv := engine.NewInvocation("skip", squareParams(100))

	require.ErrorIs(t, inv.Sample(ctx), ErrInvalidTransition)
	require.ErrorIs(t, inv.Prepare(ctx), ErrInvalidTransition)
	require.Equal(t, StateCreated, inv.State())

	require.NoError(t, inv.Validate(ctx))
	require.ErrorIs(t, inv.Validate(ctx), ErrInvalidTransition)
	require.Equal(t, StateValidated, inv.State())
}

func TestInvocation_TerminalStatesRejectWork(t *testing.T) {
	engine := newLocalEngine(t)
	ctx := context.Background()

	t.Run("after finalize", func(t *testing.T) {
		inv := engine.NewInvocation("done", squareParams(100))
		_, err := runStages(ctx, inv)
		require.NoError(t, err)

		require.ErrorIs(t, inv.Sample(ctx), ErrInvocationTerminal)
		_, err = inv.Finalize(ctx)
		require.ErrorIs(t, err, ErrInvocationTerminal)
		require.ErrorIs(t, inv.Abort(ctx, errors.New("late")), ErrInvocationTerminal)
		require.Equal(t, StateFinalized, inv.State())
	})

	t.Run("after abort", func(t *testing.T) {
		cause := errors.New("operator abort")
		inv := engine.NewInvocation("aborted", squareParams(100))
		require.NoError(t, inv.Validate(ctx))
		require.NoError(t, inv.Abort(ctx, cause))

		require.Equal(t, StateFailed, inv.State())
		require.ErrorIs(t, inv.Err(), cause)
		require.ErrorIs(t, inv.Prepare(ctx), ErrInvocationTerminal)
	})
}

func TestInvocation_SameIDSameEstimate(t *testing.T) {
	engine := newLocalEngine(t)
	ctx := context.Background()

	first, err := runStages(ctx, engine.NewInvocation("fixed-seed", squareParams(50_000)))
	require.NoError(t, err)
	second, err := runStages(ctx, engine.NewInvocation("fixed-seed", squareParams(50_000)))
	require.NoError(t, err)
	other, err := runStages(ctx, engine.NewInvocation("other-seed", squareParams(50_000)))
	require.NoError(t, err)

	require.Equal(t, first.Sum, second.Sum)
	require.NotEqual(t, first.Sum, other.Sum)
}

type shortPartitioner struct{}

func (shortPartitioner) Split(total uint64, workers int) ([]uint64, error) {
	shares := make([]uint64, workers)
	if total > 0 {
		shares[0] = total - 1
	}

	return shares, nil
}

type erroringPartitioner struct{}

func (erroringPartitioner) Split(uint64, int) ([]uint64, error) {
	return nil, ErrNoWorkers
}

func TestInvocation_PartitionMustCoverBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("lost samples", func(t *testing.T) {
		engine := newLocalEngine(t, WithPartitioner(shortPartitioner{}))
		inv := engine.NewInvocation("", squareParams(100))

		_, err := runStages(ctx, inv)
		require.ErrorIs(t, err, ErrPartition)
		require.Equal(t, StateFailed, inv.State())
	})

	t.Run("partitioner error", func(t *testing.T) {
		engine := newLocalEngine(t, WithPartitioner(erroringPartitioner{}))
		inv := engine.NewInvocation("", squareParams(100))

		_, err := runStages(ctx, inv)
		require.ErrorIs(t, err, ErrNoWorkers)
		require.Equal(t, StateFailed, inv.State())
	})
}

func TestInvocation_ParamsAreCopied(t *testing.T) {
	engine := newLocalEngine(t)
	params := squareParams(1000)

	inv := engine.NewInvocation("", params)
	params.Bounds[0] = Bound{Low: 5, High: 1}

	est, err := runStages(context.Background(), inv)
	require.NoError(t, err)
	require.InDelta(t, 3.0, est.Volume, 1e-12)
}
