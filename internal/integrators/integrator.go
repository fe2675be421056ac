// Package integrators advances compiled systems in time.
package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/dynsym/internal/dynamo"
)

var (
	ErrUnknownIntegrator = errors.New("integrators: unknown integrator")
	ErrNotLinearized     = errors.New("integrators: system cannot solve with W")
	ErrInvalidConfig     = errors.New("integrators: invalid config")
)

// Integrator advances x by one step of size dt.
type Integrator interface {
	Step(sys dynamo.System, x dynamo.State, p dynamo.Params, t, dt float64) (dynamo.State, error)
}

// AdaptiveIntegrator also proposes the size of the next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys dynamo.System, x dynamo.State, p dynamo.Params, t, dt, tol float64) (dynamo.State, float64, error)
}

// Linearized systems solve (γM - J) x = b at a point.
type Linearized interface {
	dynamo.System
	SolveW(x dynamo.State, p dynamo.Params, t, gamma float64, b []float64) ([]float64, error)
}

var registry = map[string]func() Integrator{
	"euler":          func() Integrator { return NewEuler() },
	"rk4":            func() Integrator { return NewRK4() },
	"rk45":           func() Integrator { return NewRK45() },
	"implicit_euler": func() Integrator { return NewImplicitEuler() },
}

func Get(name string) (Integrator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownIntegrator, name, List())
	}
	return f(), nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NeedsW reports whether integ requires a Linearized system.
func NeedsW(integ Integrator) bool {
	_, ok := integ.(*ImplicitEuler)
	return ok
}
