package partition

import (
	"fmt"

	"github.com/arloliu/mcint/types"
)

// Tier is one node of a hierarchical split.
//
// The root holds the whole budget; each level below divides its parent's Share among
// its Children with the Even rule. Leaves are the workers that actually sample.
type Tier struct {
	Share    uint64
	Children []Tier
}

// Nested applies the Even rule recursively across tiers.
//
// For a deployment of P processes with T threads each, call Nested(total, P, T).
// Any number of tiers is accepted; correctness does not depend on the depth.
//
// Parameters:
//   - total: Sample budget at the root
//   - tiers: Fan-out at every level, outermost first; each must be >= 1
//
// Returns:
//   - Tier: Root node
//   - error: types.ErrNoWorkers if any fan-out is < 1
func Nested(total uint64, tiers ...int) (Tier, error) {
	return NestedWith(NewEven(), total, tiers...)
}

// NestedWith is Nested with an arbitrary partitioner applied at every level.
//
// Returns:
//   - Tier: Root node
//   - error: The partitioner's error, or types.ErrPartition when it returns the wrong
//     number of shares
func NestedWith(p types.Partitioner, total uint64, tiers ...int) (Tier, error) {
	return nested(p, 0, total, tiers)
}

func nested(p types.Partitioner, depth int, total uint64, tiers []int) (Tier, error) {
	root := Tier{Share: total}
	if len(tiers) == 0 {
		return root, nil
	}

	shares, err := p.Split(total, tiers[0])
	if err != nil {
		return Tier{}, fmt.Errorf("tier %d: %w", depth, err)
	}
	if len(shares) != tiers[0] {
		return Tier{}, fmt.Errorf("%w: tier %d has %d shares for %d workers",
			types.ErrPartition, depth, len(shares), tiers[0])
	}

	root.Children = make([]Tier, len(shares))
	for i, share := range shares {
		child, err := nested(p, depth+1, share, tiers[1:])
		if err != nil {
			return Tier{}, err
		}
		root.Children[i] = child
	}

	return root, nil
}

// Leaves returns the shares of all leaf workers in depth-first order.
func (t Tier) Leaves() []uint64 {
	if len(t.Children) == 0 {
		return []uint64{t.Share}
	}

	var leaves []uint64
	for _, c := range t.Children {
		leaves = append(leaves, c.Leaves()...)
	}

	return leaves
}

// Covered reports whether every node's children sum exactly to its share.
func (t Tier) Covered() bool {
	if len(t.Children) == 0 {
		return true
	}

	var sum uint64
	for _, c := range t.Children {
		if !c.Covered() {
			return false
		}
		sum += c.Share
	}

	return sum == t.Share
}

// ProcessShares returns the per-thread assignments of one process in a two-tier deployment.
//
// It is what a single process computes locally: its own share across processes, then
// that share split across its threads.
//
// Returns:
//   - []uint64: Thread assignments for process rank
//   - error: types.ErrNoWorkers for invalid fan-outs, types.ErrInvalidConfig for a bad rank
func ProcessShares(total uint64, processes, rank, threads int) ([]uint64, error) {
	if processes < 1 {
		return nil, fmt.Errorf("%w: got %d processes", types.ErrNoWorkers, processes)
	}
	if rank < 0 || rank >= processes {
		return nil, fmt.Errorf("%w: rank %d outside [0, %d)", types.ErrInvalidConfig, rank, processes)
	}

	return Split(Share(total, processes, rank), threads)
}
