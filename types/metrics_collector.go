package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods may be called from worker goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	InvocationMetrics
	WorkerMetrics
	ReductionMetrics
}

// InvocationMetrics defines metrics for invocation lifecycle.
type InvocationMetrics interface {
	// RecordStateTransition records a lifecycle transition and the time spent in from.
	RecordStateTransition(from, to State, duration float64)

	// RecordInvocation records a finished invocation.
	//
	// Parameters:
	//   - outcome: "finalized", "failed" or "invalid"
	//   - duration: Wall time in seconds
	RecordInvocation(outcome string, duration float64)
}

// WorkerMetrics defines metrics for sampling workers.
type WorkerMetrics interface {
	// RecordSamples adds to the number of evaluated samples.
	RecordSamples(count uint64)

	// RecordWorkerDuration records how long one worker took to exhaust its share.
	//
	// Parameters:
	//   - tier: "thread" or "process"
	//   - duration: Time taken in seconds
	RecordWorkerDuration(tier string, duration float64)

	// RecordActiveWorkers sets the number of sampling threads currently running (gauge metric).
	RecordActiveWorkers(count int)
}

// ReductionMetrics defines metrics for the combine stages.
type ReductionMetrics interface {
	// RecordReductionFailure records an aborted reduction.
	//
	// Parameters:
	//   - tier: "thread" or "process"
	RecordReductionFailure(tier string)

	// RecordTransportOperation records process-tier transport latency.
	//
	// Parameters:
	//   - operation: "join", "broadcast" or "reduce"
	//   - duration: Time taken in seconds
	RecordTransportOperation(operation string, duration float64)
}
