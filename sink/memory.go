package sink

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/mcint/types"
)

// Memory stores estimates in process. It is safe for concurrent use.
type Memory struct {
	results *xsync.Map[string, types.Estimate]
}

var _ types.ResultSink = (*Memory)(nil)

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{results: xsync.NewMap[string, types.Estimate]()}
}

// Store records est under its invocation ID.
func (m *Memory) Store(_ context.Context, est types.Estimate) error {
	m.results.Store(est.InvocationID, est)
	return nil
}

// Get returns the estimate stored for invocationID.
func (m *Memory) Get(invocationID string) (types.Estimate, bool) {
	return m.results.Load(invocationID)
}

// Len returns the number of stored estimates.
func (m *Memory) Len() int {
	return m.results.Size()
}

// Discard drops every estimate.
type Discard struct{}

var _ types.ResultSink = Discard{}

func (Discard) Store(context.Context, types.Estimate) error { return nil }
