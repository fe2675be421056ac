package integrators

import (
	"fmt"

	"github.com/san-kum/dynsym/internal/dynamo"
)

// ImplicitEuler is the linearly implicit Euler method. Each step solves
// (M/dt - J) Δ = f(x) with the system's W at γ = 1/dt, so algebraic rows
// (zero rows of M) take a Newton step on their residual.
type ImplicitEuler struct{}

func NewImplicitEuler() *ImplicitEuler {
	return &ImplicitEuler{}
}

func (e *ImplicitEuler) Step(sys dynamo.System, x dynamo.State, p dynamo.Params, t, dt float64) (dynamo.State, error) {
	lin, ok := sys.(Linearized)
	if !ok {
		return nil, ErrNotLinearized
	}
	f, err := sys.Derive(x, p, t)
	if err != nil {
		return nil, err
	}
	delta, err := lin.SolveW(x, p, t, 1/dt, f)
	if err != nil {
		return nil, fmt.Errorf("integrators: implicit step at t=%g: %w", t, err)
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + delta[i]
	}
	return result, nil
}
