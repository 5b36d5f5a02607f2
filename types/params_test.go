package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParameterSet_Validate(t *testing.T) {
	t.Run("accepts ordered and zero-width bounds", func(t *testing.T) {
		p := ParameterSet{Bounds: []Bound{{Low: -5, High: 5}, {Low: 42, High: 42}}, Iterations: 10}

		require.NoError(t, p.Validate())
		require.True(t, p.Valid())
		require.Equal(t, 2, p.Dimensions())
	})

	t.Run("rejects high below low", func(t *testing.T) {
		p := ParameterSet{Bounds: []Bound{{Low: 0, High: 1}, {Low: 3, High: 2}}}

		err := p.Validate()

		require.ErrorIs(t, err, ErrInvalidBounds)
		require.Contains(t, err.Error(), "dimension 1")
		require.False(t, p.Valid())
	})

	t.Run("rejects NaN endpoints", func(t *testing.T) {
		p := ParameterSet{Bounds: []Bound{{Low: math.NaN(), High: 1}}}

		require.ErrorIs(t, p.Validate(), ErrInvalidBounds)
	})

	t.Run("rejects empty bounds", func(t *testing.T) {
		require.ErrorIs(t, ParameterSet{}.Validate(), ErrNoDimensions)
	})
}

func TestParameterSet_Clone(t *testing.T) {
	p := ParameterSet{
		Integrand:  IntegrandRef{Name: "linear", Args: []float64{1, 2}},
		Bounds:     []Bound{{Low: 0, High: 1}},
		Iterations: 7,
	}

	c := p.Clone()
	c.Bounds[0].High = 99
	c.Integrand.Args[0] = 99

	require.Equal(t, 1.0, p.Bounds[0].High)
	require.Equal(t, 1.0, p.Integrand.Args[0])
	require.Equal(t, uint64(7), c.Iterations)
}

func TestIsFatal(t *testing.T) {
	require.False(t, IsFatal(nil))
	require.False(t, IsFatal(ErrInvalidBounds))
	require.True(t, IsFatal(ErrReductionFailure))
	require.True(t, IsFatal(errors.Join(ErrReductionFailure, ErrWorkerFailed)))
	require.True(t, IsFatal(ErrPartition))
}

func TestIntegrandRef_String(t *testing.T) {
	require.Equal(t, "sum-squares", IntegrandRef{Name: "sum-squares"}.String())
	require.Equal(t, "constant[5]", IntegrandRef{Name: "constant", Args: []float64{5}}.String())
}
