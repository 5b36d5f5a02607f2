package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/mcint/types"
)

// subscriberBuffer holds every state an invocation can pass through.
const subscriberBuffer = 8

// StateMachine is the lifecycle of one invocation. It is safe for concurrent use.
type StateMachine struct {
	invocationID string

	current atomic.Int32 // types.State
	mu      sync.Mutex   // serializes transitions
	entered time.Time
	started time.Time
	err     error

	logger  types.Logger
	metrics types.MetricsCollector
	hooks   types.Hooks

	subscribers      *xsync.Map[uint64, *subscriber]
	nextSubscriberID atomic.Uint64
}

// New creates a state machine in StateCreated.
//
// Parameters:
//   - invocationID: Identifier used in logs and hook calls
//   - logger: Logger for transitions
//   - metrics: Collector receiving per-state durations
//   - hooks: Lifecycle hooks; every callback must be non-nil
func New(invocationID string, logger types.Logger, metrics types.MetricsCollector, hooks types.Hooks) *StateMachine {
	now := time.Now()
	sm := &StateMachine{
		invocationID: invocationID,
		entered:      now,
		started:      now,
		logger:       logger,
		metrics:      metrics,
		hooks:        hooks,
		subscribers:  xsync.NewMap[uint64, *subscriber](),
	}
	sm.current.Store(int32(types.StateCreated))

	return sm
}

// State returns the current state.
func (sm *StateMachine) State() types.State {
	return types.State(sm.current.Load())
}

// Err returns the error that moved the machine to StateFailed, or nil.
func (sm *StateMachine) Err() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.err
}

// Elapsed returns the time since the machine was created.
func (sm *StateMachine) Elapsed() time.Duration {
	return time.Since(sm.started)
}

// Transition moves to the next state.
//
// Returns:
//   - error: types.ErrInvocationTerminal once finished, types.ErrInvalidTransition when
//     to is not the immediate successor of the current state
func (sm *StateMachine) Transition(ctx context.Context, to types.State) error {
	if to == types.StateFailed {
		return fmt.Errorf("%w: use Fail to enter %s", types.ErrInvalidTransition, to)
	}

	return sm.move(ctx, to, nil)
}

// Fail moves to StateFailed, records cause and invokes the OnError hook.
// It returns types.ErrInvocationTerminal when the machine has already finished.
func (sm *StateMachine) Fail(ctx context.Context, cause error) error {
	if err := sm.move(ctx, types.StateFailed, cause); err != nil {
		return err
	}

	if hookErr := sm.hooks.OnError(ctx, sm.invocationID, cause); hookErr != nil {
		sm.logger.Warn("error hook failed", "invocation_id", sm.invocationID, "error", hookErr)
	}

	return nil
}

func (sm *StateMachine) move(ctx context.Context, to types.State, cause error) error {
	sm.mu.Lock()

	from := sm.State()
	if from.IsTerminal() {
		sm.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", types.ErrInvocationTerminal, sm.invocationID, from)
	}
	if !from.CanTransition(to) {
		sm.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
	}

	now := time.Now()
	spent := now.Sub(sm.entered)
	sm.entered = now
	if to == types.StateFailed {
		sm.err = cause
	}
	sm.current.Store(int32(to)) //nolint:gosec // G115: bounded enum
	sm.mu.Unlock()

	sm.metrics.RecordStateTransition(from, to, spent.Seconds())
	if to == types.StateFailed {
		sm.logger.Warn("invocation failed", "invocation_id", sm.invocationID, "from", from, "error", cause)
	} else {
		sm.logger.Debug("state transition", "invocation_id", sm.invocationID, "from", from, "to", to)
	}

	if err := sm.hooks.OnStateChanged(ctx, sm.invocationID, from, to); err != nil {
		sm.logger.Warn("state hook failed", "invocation_id", sm.invocationID, "error", err)
	}

	sm.subscribers.Range(func(_ uint64, sub *subscriber) bool {
		sub.trySend(to)
		return true
	})

	if to.IsTerminal() {
		sm.closeSubscribers()
	}

	return nil
}

// Subscribe returns a channel receiving every subsequent state, starting with the current one.
// The channel is closed when the machine reaches a terminal state or on unsubscribe.
//
// Example:
//
//	ch, unsubscribe := sm.Subscribe()
//	defer unsubscribe()
//	for state := range ch {
//	    fmt.Println(state)
//	}
func (sm *StateMachine) Subscribe() (<-chan types.State, func()) {
	id := sm.nextSubscriberID.Add(1)
	sub := &subscriber{ch: make(chan types.State, subscriberBuffer)}

	sm.mu.Lock()
	state := sm.State()
	sub.trySend(state)
	if state.IsTerminal() {
		sub.close()
	} else {
		sm.subscribers.Store(id, sub)
	}
	sm.mu.Unlock()

	return sub.ch, func() {
		if s, ok := sm.subscribers.LoadAndDelete(id); ok {
			s.close()
		}
	}
}

func (sm *StateMachine) closeSubscribers() {
	sm.subscribers.Range(func(id uint64, sub *subscriber) bool {
		sm.subscribers.Delete(id)
		sub.close()

		return true
	})
}

type subscriber struct {
	ch     chan types.State
	mu     sync.Mutex
	closed bool
}

// trySend never blocks; a slow subscriber misses states rather than stalling the invocation.
func (s *subscriber) trySend(state types.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- state:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
