package sampler

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/rand"
)

// Seed derives the generator seed of one worker.
//
// The invocation ID is hashed first, then rank and thread are folded in, so workers of
// the same invocation get unrelated seeds and repeated invocations get fresh ones.
//
// Parameters:
//   - invocationID: Unique invocation identifier
//   - rank: Process rank
//   - thread: Thread index inside the process
//
// Returns:
//   - uint64: Seed for a private generator
func Seed(invocationID string, rank, thread int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(rank))    //nolint:gosec // rank is non-negative
	binary.LittleEndian.PutUint64(buf[8:], uint64(thread)) //nolint:gosec // thread is non-negative

	return xxh3.HashSeed(buf[:], xxh3.HashString(invocationID))
}

// NewSource returns a fresh PCG generator for the given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}
