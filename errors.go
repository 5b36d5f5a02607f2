package mcint

import "github.com/arloliu/mcint/types"

// Sentinel errors. Test with errors.Is.
var (
	ErrInvalidBounds            = types.ErrInvalidBounds
	ErrNoDimensions             = types.ErrNoDimensions
	ErrInvalidConfig            = types.ErrInvalidConfig
	ErrUnknownIntegrand         = types.ErrUnknownIntegrand
	ErrInvalidIntegrandArgs     = types.ErrInvalidIntegrandArgs
	ErrIntegrandNotSerializable = types.ErrIntegrandNotSerializable
	ErrNoWorkers                = types.ErrNoWorkers
	ErrPartition                = types.ErrPartition
	ErrWorkerFailed             = types.ErrWorkerFailed
	ErrReductionFailure         = types.ErrReductionFailure
	ErrInvalidTransition        = types.ErrInvalidTransition
	ErrInvocationTerminal       = types.ErrInvocationTerminal
	ErrNotCoordinator           = types.ErrNotCoordinator
	ErrIsCoordinator            = types.ErrIsCoordinator
	ErrCommunicatorRequired     = types.ErrCommunicatorRequired
	ErrConnectivity             = types.ErrConnectivity
)
