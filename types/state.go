package types

// State represents the lifecycle state of a single integration invocation.
//
// States follow a fixed progression:
//
//	StateCreated → StateValidated → StatePrepared → StatePartitioned → StateSampling → StateCombining → StateFinalized
//
// StateFailed is reachable from every non-terminal state past StateCreated and from
// StateCreated itself when validation rejects the parameters. StateFinalized and
// StateFailed are terminal: there is no retry transition within the same invocation.
type State int

const (
	// StateCreated is the only initial state.
	StateCreated State = iota

	// StateValidated indicates the parameter set passed validation.
	StateValidated

	// StatePrepared indicates volume and per-dimension samplers have been derived.
	StatePrepared

	// StatePartitioned indicates the sample budget has been split across workers.
	StatePartitioned

	// StateSampling indicates workers are drawing and evaluating samples.
	StateSampling

	// StateCombining indicates partial sums are being reduced.
	StateCombining

	// StateFinalized indicates the estimate has been produced (terminal).
	StateFinalized

	// StateFailed indicates the invocation aborted without a result (terminal).
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateValidated:
		return "Validated"
	case StatePrepared:
		return "Prepared"
	case StatePartitioned:
		return "Partitioned"
	case StateSampling:
		return "Sampling"
	case StateCombining:
		return "Combining"
	case StateFinalized:
		return "Finalized"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transition is possible from s.
func (s State) IsTerminal() bool {
	return s == StateFinalized || s == StateFailed
}

// CanTransition reports whether the lifecycle allows moving from s to next.
//
// Forward moves are only allowed one stage at a time. StateFailed can be entered
// from any non-terminal state.
func (s State) CanTransition(next State) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateFailed {
		return true
	}

	return next == s+1
}
