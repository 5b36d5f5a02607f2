// Package reduce implements the thread tier of the two-tier reduction.
//
// FanOut runs one task per index on its own goroutine and collects results into
// per-index slots, so no shared accumulator is ever written concurrently. Sum combines
// the partial sums once every task has finished.
package reduce
