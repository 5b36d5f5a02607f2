package mcint

import "github.com/arloliu/mcint/types"

// Re-exported data types. The definitions live in the types subpackage so internal
// packages can use them without importing mcint.
type (
	State        = types.State
	Bound        = types.Bound
	IntegrandRef = types.IntegrandRef
	ParameterSet = types.ParameterSet
	Integrand    = types.Integrand
	Estimate     = types.Estimate
	Contribution = types.Contribution
	Message      = types.Message
)

// Re-exported interfaces.
type (
	Communicator     = types.Communicator
	Partitioner      = types.Partitioner
	ResultSink       = types.ResultSink
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-exported lifecycle states.
const (
	StateCreated     = types.StateCreated
	StateValidated   = types.StateValidated
	StatePrepared    = types.StatePrepared
	StatePartitioned = types.StatePartitioned
	StateSampling    = types.StateSampling
	StateCombining   = types.StateCombining
	StateFinalized   = types.StateFinalized
	StateFailed      = types.StateFailed
)
