// Package sink provides destinations for finalized estimates.
//
// The engine hands every finalized estimate to exactly one types.ResultSink. Memory keeps
// results in process, KV persists them in a NATS JetStream key-value bucket keyed by
// invocation ID, and Discard drops them.
package sink
