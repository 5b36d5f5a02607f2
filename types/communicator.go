package types

import "context"

// Message is the payload the coordinator broadcasts at the start of an invocation.
type Message struct {
	InvocationID string `json:"invocationId"`
	Payload      []byte `json:"payload"`
}

// Communicator is the process-tier transport.
//
// A deployment consists of Size() cooperating processes with ranks 0..Size()-1; rank 0
// is the coordinator. Processes share no memory and interact only through one Broadcast
// at the start and one Reduce at the end of each invocation.
//
// Implementations:
//   - cluster.Local: single process, no transport
//   - cluster.Memory: channel-connected ranks in one address space
//   - cluster.NATS: NATS request/reply between real processes
type Communicator interface {
	// Rank returns this process's rank.
	Rank() int

	// Size returns the number of processes in the deployment.
	Size() int

	// Broadcast distributes msg from the coordinator to every rank.
	//
	// On the coordinator msg is sent and returned unchanged once every rank received it.
	// On other ranks msg is ignored and the received message is returned.
	Broadcast(ctx context.Context, msg Message) (Message, error)

	// Reduce sums contributions across all ranks.
	//
	// The coordinator blocks until every rank contributed and returns the combined
	// contribution. Other ranks return once their contribution was delivered; their
	// returned value is meaningless and must be discarded.
	//
	// Any failed contribution or missing rank yields ErrReductionFailure.
	Reduce(ctx context.Context, invocationID string, c Contribution) (Contribution, error)
}

// Partitioner splits a sample budget across workers.
//
// Implementations must be pure: identical inputs always yield identical assignments, and
// the assignments always sum exactly to total.
type Partitioner interface {
	Split(total uint64, workers int) ([]uint64, error)
}

// ResultSink is the destination slot receiving finalized estimates.
//
// Store is called at most once per invocation, and only on the coordinator after the
// invocation reached StateFinalized.
type ResultSink interface {
	Store(ctx context.Context, estimate Estimate) error
}
