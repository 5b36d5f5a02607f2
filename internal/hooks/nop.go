// Package hooks provides the default lifecycle hooks.
package hooks

import (
	"context"

	"github.com/arloliu/mcint/types"
)

// NopHooks implements every hook as a no-op so callers never nil-check.
type NopHooks struct{}

var (
	_ func(context.Context, string, types.State, types.State) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, types.Estimate) error                   = (*NopHooks)(nil).OnFinalized
	_ func(context.Context, string, error) error                    = (*NopHooks)(nil).OnError
)

// NewNop returns hooks with all callbacks set to no-ops.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnStateChanged: h.OnStateChanged,
		OnFinalized:    h.OnFinalized,
		OnError:        h.OnError,
	}
}

// Fill returns h with any nil callback replaced by its no-op.
func Fill(h *types.Hooks) types.Hooks {
	nop := NewNop()
	if h == nil {
		return nop
	}

	out := *h
	if out.OnStateChanged == nil {
		out.OnStateChanged = nop.OnStateChanged
	}
	if out.OnFinalized == nil {
		out.OnFinalized = nop.OnFinalized
	}
	if out.OnError == nil {
		out.OnError = nop.OnError
	}

	return out
}

func (h *NopHooks) OnStateChanged(_ context.Context, _ string, _, _ types.State) error {
	return nil
}

func (h *NopHooks) OnFinalized(_ context.Context, _ types.Estimate) error {
	return nil
}

func (h *NopHooks) OnError(_ context.Context, _ string, _ error) error {
	return nil
}
