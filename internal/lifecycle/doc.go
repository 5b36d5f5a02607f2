// Package lifecycle tracks the state of a single integration invocation.
//
// The StateMachine enforces the forward-only progression defined by types.State,
// records per-state durations, invokes the OnStateChanged hook and fans transitions out
// to subscribers. Once it reaches a terminal state every further transition is rejected.
package lifecycle
