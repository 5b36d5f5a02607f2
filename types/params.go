package types

import (
	"fmt"
	"math"
)

// Bound is the closed-open integration interval [Low, High) of one dimension.
type Bound struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Span returns High - Low.
func (b Bound) Span() float64 {
	return b.High - b.Low
}

// Valid reports whether High >= Low. NaN endpoints are never valid.
func (b Bound) Valid() bool {
	if math.IsNaN(b.Low) || math.IsNaN(b.High) {
		return false
	}

	return b.High >= b.Low
}

// IntegrandRef names a registered integrand together with its construction arguments.
//
// Only references cross process boundaries; every process resolves the name against
// its own registry.
type IntegrandRef struct {
	Name string    `json:"name" yaml:"name"`
	Args []float64 `json:"args,omitempty" yaml:"args,omitempty"`
}

// String renders the reference as name(arg, ...).
func (r IntegrandRef) String() string {
	if len(r.Args) == 0 {
		return r.Name
	}

	return fmt.Sprintf("%s%v", r.Name, r.Args)
}

// ParameterSet is the immutable input of one invocation.
//
// It is created by the coordinator, validated once, and copied to every worker before
// sampling starts.
type ParameterSet struct {
	// Integrand references a registry entry. Required when more than one process takes part.
	Integrand IntegrandRef `json:"integrand" yaml:"integrand"`

	// Func, when set, is used directly instead of resolving Integrand.
	// It never leaves the process that created it.
	Func Integrand `json:"-" yaml:"-"`

	// Bounds holds one interval per dimension. Its length is the dimensionality.
	Bounds []Bound `json:"bounds" yaml:"bounds"`

	// Iterations is the total sample budget shared by all workers.
	Iterations uint64 `json:"iterations" yaml:"iterations"`
}

// Dimensions returns the number of integration dimensions.
func (p ParameterSet) Dimensions() int {
	return len(p.Bounds)
}

// Validate checks every bound and returns ErrInvalidBounds for the first dimension
// with High < Low.
func (p ParameterSet) Validate() error {
	if len(p.Bounds) == 0 {
		return ErrNoDimensions
	}

	for i, b := range p.Bounds {
		if !b.Valid() {
			return fmt.Errorf("%w: dimension %d has high %v < low %v", ErrInvalidBounds, i, b.High, b.Low)
		}
	}

	return nil
}

// Valid is the boolean form of Validate.
func (p ParameterSet) Valid() bool {
	return p.Validate() == nil
}

// Clone returns a deep copy that shares no slices with p.
func (p ParameterSet) Clone() ParameterSet {
	c := p
	c.Bounds = append([]Bound(nil), p.Bounds...)
	if p.Integrand.Args != nil {
		c.Integrand.Args = append([]float64(nil), p.Integrand.Args...)
	}

	return c
}
