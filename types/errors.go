package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the mcint library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Validation errors - detected before any work starts, recoverable by the caller.
var (
	// ErrInvalidBounds is returned when a dimension has high < low.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrNoDimensions is returned when a parameter set has no bounds at all.
	ErrNoDimensions = errors.New("parameter set has no dimensions")

	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Integrand errors.
var (
	// ErrUnknownIntegrand is returned when a reference names no registered integrand.
	ErrUnknownIntegrand = errors.New("unknown integrand")

	// ErrInvalidIntegrandArgs is returned when a factory rejects its arguments.
	ErrInvalidIntegrandArgs = errors.New("invalid integrand arguments")

	// ErrIntegrandNotSerializable is returned when a closure-only integrand is used
	// with more than one process.
	ErrIntegrandNotSerializable = errors.New("integrand cannot cross process boundaries without a registered name")

	// ErrDuplicateIntegrand is returned when registering a name twice.
	ErrDuplicateIntegrand = errors.New("integrand already registered")
)

// Partition errors.
var (
	// ErrNoWorkers is returned when splitting a budget across fewer than one worker.
	ErrNoWorkers = errors.New("no workers available")

	// ErrPartition is returned when the combined sample count does not match the budget.
	// The partitioner's exact-coverage invariant makes this unreachable in a correct build.
	ErrPartition = errors.New("partition does not cover the sample budget")
)

// Sampling and reduction errors - fatal to the whole invocation.
var (
	// ErrWorkerFailed is returned when a worker cannot complete its assigned share.
	ErrWorkerFailed = errors.New("worker failed")

	// ErrReductionFailure is returned when any worker or process fails to contribute.
	ErrReductionFailure = errors.New("reduction failed")
)

// Lifecycle errors.
var (
	// ErrInvalidTransition is returned for a state change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvocationTerminal is returned when operating on a finalized or failed invocation.
	ErrInvocationTerminal = errors.New("invocation already finished")

	// ErrNotCoordinator is returned when a coordinator-only operation runs on another rank.
	ErrNotCoordinator = errors.New("operation requires the coordinator")

	// ErrIsCoordinator is returned when a participant-only operation runs on the coordinator.
	ErrIsCoordinator = errors.New("operation not allowed on the coordinator")

	// ErrCommunicatorRequired is returned when the engine is built without a communicator.
	ErrCommunicatorRequired = errors.New("communicator is required")
)

// Transport errors.
var (
	// ErrConnectivity indicates a broker connectivity issue.
	ErrConnectivity = errors.New("connectivity issue")

	// ErrStaleMessage indicates a message that belongs to another invocation.
	ErrStaleMessage = errors.New("stale message")
)

// IsFatal reports whether err aborts an invocation that already started sampling.
//
// Validation errors are recoverable and return false.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true for reduction, worker and partition failures
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrReductionFailure) ||
		errors.Is(err, ErrWorkerFailed) ||
		errors.Is(err, ErrPartition)
}

// IsNoResponders checks if an error indicates that nobody is listening on a subject yet.
//
// The broker error may arrive wrapped, so the message text is checked as a fallback.
func IsNoResponders(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "no responders")
}
