package integrand

import (
	"fmt"
	"math"

	"github.com/arloliu/mcint/types"
)

// Built-in integrand names.
const (
	Constant    = "constant"
	Linear      = "linear"
	SumSquares  = "sum-squares"
	SquarePlus  = "x^2+4y"
	UnitBall    = "unit-ball"
	Gaussian    = "gaussian"
	Square      = "x^2"
	Sine        = "sin(x)"
	Cosine      = "cos(x)"
	Exponential = "exp(x)"
	Lorentzian  = "1/(1+x^2)"
)

var defaultRegistry = newDefault()

// Default returns the process-wide registry pre-populated with the built-ins.
func Default() *Registry {
	return defaultRegistry
}

// NewDefault returns a fresh registry holding only the built-ins.
func NewDefault() *Registry {
	return newDefault()
}

func newDefault() *Registry {
	r := NewRegistry()

	r.MustRegister(Constant, func(args []float64) (types.Integrand, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: constant takes exactly one argument, got %d", types.ErrInvalidIntegrandArgs, len(args))
		}
		c := args[0]

		return func([]float64) float64 { return c }, nil
	})

	// linear(a0, a1, ...) = Σ a_i x_i; missing coefficients are 0.
	r.MustRegister(Linear, func(args []float64) (types.Integrand, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: linear needs at least one coefficient", types.ErrInvalidIntegrandArgs)
		}
		coef := append([]float64(nil), args...)

		return func(x []float64) float64 {
			var v float64
			for i := 0; i < len(x) && i < len(coef); i++ {
				v += coef[i] * x[i]
			}

			return v
		}, nil
	})

	mustFunc(r, SumSquares, func(x []float64) float64 {
		var v float64
		for _, xi := range x {
			v += xi * xi
		}

		return v
	})
	mustFunc(r, SquarePlus, func(x []float64) float64 {
		return x[0]*x[0] + 4*coord(x, 1)
	})
	mustFunc(r, UnitBall, func(x []float64) float64 {
		var r2 float64
		for _, xi := range x {
			r2 += xi * xi
		}
		if r2 <= 1 {
			return 1
		}

		return 0
	})
	mustFunc(r, Gaussian, func(x []float64) float64 {
		var r2 float64
		for _, xi := range x {
			r2 += xi * xi
		}

		return math.Exp(-r2)
	})

	// One-dimensional classics act on the first coordinate.
	mustFunc(r, Square, func(x []float64) float64 { return x[0] * x[0] })
	mustFunc(r, Sine, func(x []float64) float64 { return math.Sin(x[0]) })
	mustFunc(r, Cosine, func(x []float64) float64 { return math.Cos(x[0]) })
	mustFunc(r, Exponential, func(x []float64) float64 { return math.Exp(x[0]) })
	mustFunc(r, Lorentzian, func(x []float64) float64 { return 1 / (1 + x[0]*x[0]) })

	return r
}

func mustFunc(r *Registry, name string, fn types.Integrand) {
	if err := r.RegisterFunc(name, fn); err != nil {
		panic(err)
	}
}

func coord(x []float64, i int) float64 {
	if i < len(x) {
		return x[i]
	}

	return 0
}
