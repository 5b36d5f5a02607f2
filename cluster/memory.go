package cluster

import (
	"context"
	"fmt"

	"github.com/arloliu/mcint/types"
)

type envelope struct {
	invocationID string
	contribution types.Contribution
}

type memoryGroup struct {
	size     int
	params   []chan types.Message // indexed by rank, nil for the coordinator
	partials chan envelope
}

// Memory is one rank of a group of channel-connected communicators.
//
// A memory group behaves like a multi-process deployment without sharing any state
// other than the channels: every rank still receives its own copy of the parameters
// and contributes exactly one value per invocation.
type Memory struct {
	group *memoryGroup
	rank  int
}

var _ types.Communicator = (*Memory)(nil)

// NewMemoryGroup creates size connected ranks. Element i has rank i.
//
// Example:
//
//	ranks, _ := cluster.NewMemoryGroup(3)
//	for _, r := range ranks[1:] {
//	    go worker(r)
//	}
//	coordinator(ranks[0])
func NewMemoryGroup(size int) ([]*Memory, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: group size %d", types.ErrNoWorkers, size)
	}

	g := &memoryGroup{
		size:     size,
		params:   make([]chan types.Message, size),
		partials: make(chan envelope, size),
	}
	ranks := make([]*Memory, size)
	for r := 0; r < size; r++ {
		if r > 0 {
			g.params[r] = make(chan types.Message, 1)
		}
		ranks[r] = &Memory{group: g, rank: r}
	}

	return ranks, nil
}

func (m *Memory) Rank() int { return m.rank }

func (m *Memory) Size() int { return m.group.size }

// Broadcast sends msg to every other rank on the coordinator and receives it elsewhere.
func (m *Memory) Broadcast(ctx context.Context, msg types.Message) (types.Message, error) {
	if m.rank != 0 {
		select {
		case got := <-m.group.params[m.rank]:
			return got, nil
		case <-ctx.Done():
			return types.Message{}, fmt.Errorf("rank %d waiting for parameters: %w", m.rank, ctx.Err())
		}
	}

	for r := 1; r < m.group.size; r++ {
		select {
		case m.group.params[r] <- msg:
		case <-ctx.Done():
			return types.Message{}, fmt.Errorf("broadcast to rank %d: %w", r, ctx.Err())
		}
	}

	return msg, nil
}

// Reduce delivers c to the coordinator, which combines one contribution per rank.
func (m *Memory) Reduce(ctx context.Context, invocationID string, c types.Contribution) (types.Contribution, error) {
	c.Rank = m.rank

	if m.rank != 0 {
		select {
		case m.group.partials <- envelope{invocationID: invocationID, contribution: c}:
			return types.Contribution{}, nil
		case <-ctx.Done():
			return types.Contribution{}, fmt.Errorf("%w: rank %d: %w", types.ErrReductionFailure, m.rank, ctx.Err())
		}
	}

	if c.Failed() {
		return types.Contribution{}, contributionError(c)
	}

	got := make(map[int]types.Contribution, m.group.size)
	got[0] = c
	for len(got) < m.group.size {
		select {
		case env := <-m.group.partials:
			if env.invocationID != invocationID {
				continue
			}
			if env.contribution.Failed() {
				return types.Contribution{}, contributionError(env.contribution)
			}
			got[env.contribution.Rank] = env.contribution
		case <-ctx.Done():
			return types.Contribution{}, fmt.Errorf("%w: %d of %d ranks contributed: %w",
				types.ErrReductionFailure, len(got), m.group.size, ctx.Err())
		}
	}

	return Combine(m.group.size, mapValues(got))
}

func mapValues(m map[int]types.Contribution) []types.Contribution {
	out := make([]types.Contribution, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}

	return out
}
