package cluster

import (
	"context"

	"github.com/arloliu/mcint/types"
)

// Local is the single-process communicator. Broadcast and Reduce are identities.
type Local struct{}

var _ types.Communicator = (*Local)(nil)

// NewLocal returns a size-1 communicator.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Rank() int { return 0 }

func (l *Local) Size() int { return 1 }

// Broadcast returns msg unchanged.
func (l *Local) Broadcast(ctx context.Context, msg types.Message) (types.Message, error) {
	if err := ctx.Err(); err != nil {
		return types.Message{}, err
	}

	return msg, nil
}

// Reduce returns c, or an error when c failed.
func (l *Local) Reduce(_ context.Context, _ string, c types.Contribution) (types.Contribution, error) {
	return Combine(1, []types.Contribution{c})
}
