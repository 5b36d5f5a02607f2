package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/mcint/types"
)

// runGroup drives one broadcast and reduce across every rank of comms.
func runGroup(t *testing.T, ctx context.Context, comms []types.Communicator, contribute func(rank int, msg types.Message) types.Contribution) (types.Contribution, error) {
	t.Helper()

	var result types.Contribution
	g, gctx := errgroup.WithContext(ctx)
	for _, comm := range comms {
		g.Go(func() error {
			msg, err := comm.Broadcast(gctx, types.Message{InvocationID: "inv-1", Payload: []byte("params")})
			if err != nil {
				return err
			}

			c, err := comm.Reduce(gctx, msg.InvocationID, contribute(comm.Rank(), msg))
			if err != nil {
				return err
			}
			if comm.Rank() == 0 {
				result = c
			}

			return nil
		})
	}
	err := g.Wait()

	return result, err
}

func memoryComms(t *testing.T, size int) []types.Communicator {
	t.Helper()

	ranks, err := NewMemoryGroup(size)
	require.NoError(t, err)

	comms := make([]types.Communicator, size)
	for i, r := range ranks {
		require.Equal(t, i, r.Rank())
		require.Equal(t, size, r.Size())
		comms[i] = r
	}

	return comms
}

func TestMemoryGroup_BroadcastAndReduce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	comms := memoryComms(t, 4)
	got, err := runGroup(t, ctx, comms, func(rank int, msg types.Message) types.Contribution {
		assert.Equal(t, []byte("params"), msg.Payload)
		return types.Contribution{Sum: float64(rank + 1), Samples: 10}
	})
	require.NoError(t, err)
	require.InDelta(t, 10.0, got.Sum, 1e-12)
	require.Equal(t, uint64(40), got.Samples)
}

func TestMemoryGroup_FailedRankAbortsReduction(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	comms := memoryComms(t, 3)
	_, err := runGroup(t, ctx, comms, func(rank int, _ types.Message) types.Contribution {
		if rank == 2 {
			return types.Contribution{Err: "sampler panicked"}
		}
		return types.Contribution{Sum: 1, Samples: 1}
	})
	require.ErrorIs(t, err, types.ErrReductionFailure)
}

func TestMemoryGroup_IgnoresStaleContributions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ranks, err := NewMemoryGroup(2)
	require.NoError(t, err)

	_, err = ranks[1].Reduce(ctx, "old", types.Contribution{Sum: 100, Samples: 100})
	require.NoError(t, err)
	_, err = ranks[1].Reduce(ctx, "new", types.Contribution{Sum: 1, Samples: 1})
	require.NoError(t, err)

	got, err := ranks[0].Reduce(ctx, "new", types.Contribution{Sum: 2, Samples: 2})
	require.NoError(t, err)
	require.InDelta(t, 3.0, got.Sum, 1e-12)
	require.Equal(t, uint64(3), got.Samples)
}

func TestMemoryGroup_MissingRankTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ranks, err := NewMemoryGroup(2)
	require.NoError(t, err)

	_, err = ranks[0].Reduce(ctx, "inv", types.Contribution{Sum: 1, Samples: 1})
	require.ErrorIs(t, err, types.ErrReductionFailure)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewMemoryGroup_RejectsEmpty(t *testing.T) {
	_, err := NewMemoryGroup(0)
	require.ErrorIs(t, err, types.ErrNoWorkers)
}
