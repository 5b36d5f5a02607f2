// Package cluster implements the process tier of the two-tier reduction.
//
// Every implementation satisfies types.Communicator: the coordinator (rank 0)
// broadcasts the invocation parameters once, every rank samples its share, and the
// coordinator reduces one Contribution per rank into the combined sum.
//
//   - Local: a single process, no transport at all
//   - Memory: ranks connected by channels inside one address space
//   - NATS: ranks in separate processes talking request/reply over a NATS server
//
// The NATS protocol uses three subjects per group:
//
//	<prefix>.<group>.join      rank -> coordinator, acknowledged once the coordinator collects joins
//	<prefix>.<group>.params    coordinator -> all, published after every rank joined
//	<prefix>.<group>.partials  rank -> coordinator, acknowledged on receipt
//
// Parameters are therefore published only after every rank is subscribed, and no
// rank can start sampling before the full configuration reached it.
package cluster
