// Package backoff computes jittered retry delays for control-plane requests.
package backoff

import (
	rand "math/rand/v2"
	"time"
)

// Defaults used when a Policy field is left zero.
const (
	DefaultBase       = 50 * time.Millisecond
	DefaultMultiplier = 1.6
	DefaultCap        = 2 * time.Second
)

// Policy describes a decorrelated jitter backoff.
//
// Each delay is drawn uniformly from [Base, prev*Multiplier) and clamped to Cap.
// See https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/.
type Policy struct {
	Base       time.Duration `json:"base" yaml:"base"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier"`
	Cap        time.Duration `json:"cap" yaml:"cap"`
}

// Default returns the default policy.
func Default() Policy {
	return Policy{Base: DefaultBase, Multiplier: DefaultMultiplier, Cap: DefaultCap}
}

// Next returns the delay to wait after prev. A nil rng uses the package-level generator.
func (p Policy) Next(prev time.Duration, rng *rand.Rand) time.Duration {
	return jitter(prev, p.Base, p.Multiplier, p.Cap, rng)
}

// Sequence yields successive delays from a single policy.
type Sequence struct {
	policy Policy
	rng    *rand.Rand
	prev   time.Duration
}

// NewSequence starts a delay sequence. A non-zero seed makes it reproducible.
func NewSequence(p Policy, seed int64) *Sequence {
	return &Sequence{policy: p, rng: NewRNG(seed)}
}

// Next returns the next delay.
func (s *Sequence) Next() time.Duration {
	s.prev = s.policy.Next(s.prev, s.rng)
	return s.prev
}

// Reset restarts the sequence from Base.
func (s *Sequence) Reset() {
	s.prev = 0
}

func jitter(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = DefaultBase
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}
	if prev <= 0 {
		return base
	}

	span := time.Duration(float64(prev)*mult) - base
	if span <= 0 {
		span = base
	}

	var j int64
	if rng != nil {
		j = rng.Int64N(int64(span))
	} else {
		j = rand.Int64N(int64(span)) //nolint:gosec // non-crypto backoff jitter
	}

	next := base + time.Duration(j)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// NewRNG returns a deterministic generator for a non-zero seed and nil otherwise.
//
//nolint:gosec
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}
