package models

import (
	"github.com/san-kum/dynsym/internal/symbolic"
	"github.com/san-kum/dynsym/internal/system"
)

// NewPendulum builds a damped pendulum with its total energy as an observed
// output.
func NewPendulum() (*system.System, error) {
	theta, omega := symbolic.Var("theta"), symbolic.Var("omega")
	energy := symbolic.Var("E")
	m, l, c, g := symbolic.Param("m"), symbolic.Param("l"), symbolic.Param("c"), symbolic.Param("g")

	inertia := mul(ex(m), pow(ex(l), num(2)))
	return system.New("pendulum", []symbolic.Equation{
		eq(deriv(ex(theta)), ex(omega)),
		eq(deriv(ex(omega)), div(
			sub(neg(mul(ex(c), ex(omega))), mul(ex(m), ex(g), ex(l), symbolic.Sin(ex(theta)))),
			inertia,
		)),
	},
		system.WithIndependentVariable(tv),
		system.WithObserved(eq(ex(energy), add(
			mul(num(0.5), inertia, pow(ex(omega), num(2))),
			mul(ex(m), ex(g), ex(l), sub(num(1), symbolic.Cos(ex(theta)))),
		))),
		system.WithDefaults(defaults(
			theta, 1.0, omega, 0.0,
			m, 1.0, l, 1.0, c, 0.1, g, 9.81,
		)),
	)
}

// NewSpringMass builds a damped harmonic oscillator.
func NewSpringMass() (*system.System, error) {
	x, v := symbolic.Var("x"), symbolic.Var("v")
	k, m, c := symbolic.Param("k"), symbolic.Param("m"), symbolic.Param("c")

	return system.New("spring_mass", []symbolic.Equation{
		eq(deriv(ex(x)), ex(v)),
		eq(deriv(ex(v)), div(sub(neg(mul(ex(k), ex(x))), mul(ex(c), ex(v))), ex(m))),
	},
		system.WithIndependentVariable(tv),
		system.WithDefaults(defaults(x, 1.0, v, 0.0, k, 1.0, m, 1.0, c, 0.0)),
	)
}

// newBody is a mass on a spring to ground driven by an external force F that
// the enclosing system determines.
func newBody(name string, x0 float64) (*system.System, error) {
	x, v, f := symbolic.Var("x"), symbolic.Var("v"), symbolic.Var("F")
	k, m := symbolic.Param("k"), symbolic.Param("m")

	return system.New(name, []symbolic.Equation{
		eq(deriv(ex(x)), ex(v)),
		eq(deriv(ex(v)), div(sub(ex(f), mul(ex(k), ex(x))), ex(m))),
	},
		system.WithIndependentVariable(tv),
		system.WithDefaults(defaults(x, x0, v, 0.0, f, 0.0, k, 1.0, m, 1.0)),
	)
}

// NewCoupled builds two bodies joined by a coupling spring. The coupling
// forces are algebraic unknowns of the bodies fixed by equations at the
// root.
func NewCoupled() (*system.System, error) {
	left, err := newBody("left", 1.0)
	if err != nil {
		return nil, err
	}
	right, err := newBody("right", 0.0)
	if err != nil {
		return nil, err
	}

	q := func(body string, name string) symbolic.Expr {
		return system.Namespace(body, symbolic.Var(name)).Expr()
	}
	kc := symbolic.Param("kc")
	return system.New("coupled", []symbolic.Equation{
		eq(num(0), sub(q("left", "F"), mul(ex(kc), sub(q("right", "x"), q("left", "x"))))),
		eq(num(0), sub(q("right", "F"), mul(ex(kc), sub(q("left", "x"), q("right", "x"))))),
	},
		system.WithSystems(left, right),
		system.WithDefaults(defaults(kc, 0.5)),
	)
}

// NewRosenbrock builds the Rosenbrock function as a scalar objective.
//
//	f(x, y) = (a - x)² + b(y - x²)²
func NewRosenbrock() (*system.System, error) {
	x, y := symbolic.Var("x"), symbolic.Var("y")
	a, b := symbolic.Param("a"), symbolic.Param("b")

	loss := add(
		pow(sub(ex(a), ex(x)), num(2)),
		mul(ex(b), pow(sub(ex(y), pow(ex(x), num(2))), num(2))),
	)
	return system.New("rosenbrock", nil,
		system.WithLoss(loss),
		system.WithDefaults(defaults(x, -1.2, y, 1.0, a, 1.0, b, 100.0)),
	)
}
