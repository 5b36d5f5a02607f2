package integrand

import (
	"math"
	"sync"
	"testing"

	"github.com/arloliu/mcint/types"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("one", func([]float64) float64 { return 1 }))

	fn, err := r.Resolve(types.IntegrandRef{Name: "one"})
	require.NoError(t, err)
	require.Equal(t, 1.0, fn([]float64{3}))

	t.Run("duplicate name", func(t *testing.T) {
		err := r.RegisterFunc("one", func([]float64) float64 { return 2 })
		require.ErrorIs(t, err, types.ErrDuplicateIntegrand)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.Resolve(types.IntegrandRef{Name: "missing"})
		require.ErrorIs(t, err, types.ErrUnknownIntegrand)
	})

	t.Run("argument-free integrand rejects arguments", func(t *testing.T) {
		_, err := r.Resolve(types.IntegrandRef{Name: "one", Args: []float64{1}})
		require.ErrorIs(t, err, types.ErrInvalidIntegrandArgs)
	})

	t.Run("empty registration", func(t *testing.T) {
		require.ErrorIs(t, r.Register("", nil), types.ErrInvalidIntegrandArgs)
	})
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.RegisterFunc("same", func([]float64) float64 { return 0 })
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, types.ErrDuplicateIntegrand)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, []string{"same"}, r.Names())
}

func TestDefault_Builtins(t *testing.T) {
	r := NewDefault()

	tests := []struct {
		ref   types.IntegrandRef
		point []float64
		want  float64
	}{
		{types.IntegrandRef{Name: Constant, Args: []float64{5}}, []float64{1}, 5},
		{types.IntegrandRef{Name: Linear, Args: []float64{1, 2}}, []float64{3, 4}, 11},
		{types.IntegrandRef{Name: SumSquares}, []float64{1, 2, 3}, 14},
		{types.IntegrandRef{Name: SquarePlus}, []float64{11, 7}, 149},
		{types.IntegrandRef{Name: UnitBall}, []float64{0.5, 0.5}, 1},
		{types.IntegrandRef{Name: UnitBall}, []float64{1, 1}, 0},
		{types.IntegrandRef{Name: Gaussian}, []float64{0, 0}, 1},
		{types.IntegrandRef{Name: Square}, []float64{3}, 9},
		{types.IntegrandRef{Name: Sine}, []float64{0}, 0},
		{types.IntegrandRef{Name: Cosine}, []float64{0}, 1},
		{types.IntegrandRef{Name: Exponential}, []float64{0}, 1},
		{types.IntegrandRef{Name: Lorentzian}, []float64{1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			fn, err := r.Resolve(tt.ref)
			require.NoError(t, err)
			require.InDelta(t, tt.want, fn(tt.point), 1e-12)
		})
	}

	t.Run("constant requires one argument", func(t *testing.T) {
		_, err := r.Resolve(types.IntegrandRef{Name: Constant})
		require.ErrorIs(t, err, types.ErrInvalidIntegrandArgs)
	})

	t.Run("names are sorted", func(t *testing.T) {
		names := r.Names()
		require.Contains(t, names, Constant)
		require.True(t, sortedStrings(names))
	})

	t.Run("gaussian decays", func(t *testing.T) {
		fn, err := r.Resolve(types.IntegrandRef{Name: Gaussian})
		require.NoError(t, err)
		require.InDelta(t, math.Exp(-2), fn([]float64{1, 1}), 1e-12)
	})
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}

	return true
}
