package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func stddev(durs []time.Duration) time.Duration {
	vals := make([]float64, len(durs))
	var sum float64
	for i, d := range durs {
		vals[i] = d.Seconds()
		sum += vals[i]
	}
	mean := sum / float64(len(vals))

	var varSum float64
	for _, v := range vals {
		varSum += (v - mean) * (v - mean)
	}

	return time.Duration(math.Sqrt(varSum/float64(len(vals))) * float64(time.Second))
}

func TestPolicy_BoundsAndCap(t *testing.T) {
	p := Policy{Base: 200 * time.Millisecond, Multiplier: 1.6, Cap: 500 * time.Millisecond}
	seq := NewSequence(p, 42)

	require.Equal(t, p.Base, seq.Next())
	for i := 0; i < 10; i++ {
		next := seq.Next()
		require.GreaterOrEqual(t, next, p.Base)
		require.LessOrEqual(t, next, p.Cap)
	}

	seq.Reset()
	require.Equal(t, p.Base, seq.Next())
}

func TestPolicy_CapBelowBase(t *testing.T) {
	p := Policy{Base: 200 * time.Millisecond, Multiplier: 1.6, Cap: 100 * time.Millisecond}
	rng := NewRNG(1)

	require.Equal(t, p.Cap, p.Next(0, rng))
	require.Equal(t, p.Cap, p.Next(p.Base, rng))
}

func TestPolicy_ZeroValueUsesDefaults(t *testing.T) {
	var p Policy
	require.Equal(t, DefaultBase, p.Next(0, nil))
	require.GreaterOrEqual(t, p.Next(time.Second, nil), DefaultBase)
}

func TestPolicy_VarianceAcrossSeeds(t *testing.T) {
	p := Policy{Base: 200 * time.Millisecond, Multiplier: 1.6, Cap: 2 * time.Second}

	lasts := make([]time.Duration, 0, 5)
	for s := int64(1); s <= 5; s++ {
		seq := NewSequence(p, s)
		var last time.Duration
		for i := 0; i < 12; i++ {
			last = seq.Next()
		}
		lasts = append(lasts, last)
	}

	require.GreaterOrEqual(t, stddev(lasts), 50*time.Millisecond)
}

func TestNewRNG(t *testing.T) {
	require.Nil(t, NewRNG(0))
	a, b := NewRNG(7), NewRNG(7)
	require.Equal(t, a.Int64(), b.Int64())
}
