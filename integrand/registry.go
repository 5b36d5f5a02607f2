package integrand

import (
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/mcint/types"
)

// Registry maps integrand names to factories. It is safe for concurrent use.
type Registry struct {
	factories *xsync.Map[string, types.IntegrandFactory]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: xsync.NewMap[string, types.IntegrandFactory]()}
}

// Register adds a factory under name.
//
// Returns:
//   - error: types.ErrDuplicateIntegrand if name is taken, types.ErrInvalidIntegrandArgs for an empty name or nil factory
func (r *Registry) Register(name string, factory types.IntegrandFactory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("%w: name and factory are required", types.ErrInvalidIntegrandArgs)
	}

	if _, loaded := r.factories.LoadOrStore(name, factory); loaded {
		return fmt.Errorf("%w: %s", types.ErrDuplicateIntegrand, name)
	}

	return nil
}

// MustRegister is like Register but panics on error. Meant for package initialization.
func (r *Registry) MustRegister(name string, factory types.IntegrandFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// RegisterFunc registers an argument-free integrand.
func (r *Registry) RegisterFunc(name string, fn types.Integrand) error {
	return r.Register(name, func(args []float64) (types.Integrand, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: %s takes no arguments, got %d", types.ErrInvalidIntegrandArgs, name, len(args))
		}

		return fn, nil
	})
}

// Resolve builds the integrand referenced by ref.
//
// Returns:
//   - types.Integrand: Ready-to-evaluate function
//   - error: types.ErrUnknownIntegrand or a factory error
func (r *Registry) Resolve(ref types.IntegrandRef) (types.Integrand, error) {
	factory, ok := r.factories.Load(ref.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownIntegrand, ref.Name)
	}

	fn, err := factory(ref.Args)
	if err != nil {
		return nil, fmt.Errorf("integrand %s: %w", ref.Name, err)
	}

	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories.Load(name)
	return ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.factories.Size())
	r.factories.Range(func(name string, _ types.IntegrandFactory) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)

	return names
}
