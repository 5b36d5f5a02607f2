package types

import "context"

// Hooks defines callbacks for invocation lifecycle events.
//
// All hooks are optional. They run synchronously on the goroutine driving the invocation,
// so they should complete quickly and must not call back into the engine.
// Hook errors are logged but never change the outcome of an invocation.
//
// Example:
//
//	hooks := &mcint.Hooks{
//	    OnFinalized: func(ctx context.Context, est mcint.Estimate) error {
//	        fmt.Printf("%s = %g\n", est.InvocationID, est.Value)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called after every lifecycle transition.
	OnStateChanged func(ctx context.Context, invocationID string, from, to State) error

	// OnFinalized is called on the coordinator once an estimate has been produced.
	OnFinalized func(ctx context.Context, estimate Estimate) error

	// OnError is called when an invocation fails.
	OnError func(ctx context.Context, invocationID string, err error) error
}
