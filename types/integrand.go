package types

// Integrand is a pure function of a point to a real number.
//
// The engine relies on purity: the same point must always produce the same value and
// evaluation must have no side effects, because samples are drawn and combined in no
// particular order.
type Integrand func(point []float64) float64

// IntegrandFactory builds an Integrand from serialized arguments.
type IntegrandFactory func(args []float64) (Integrand, error)
