package models

import (
	"github.com/san-kum/dynsym/internal/symbolic"
	"github.com/san-kum/dynsym/internal/system"
)

// NewLorenz builds the Lorenz attractor.
//
//	dx/dt = σ(y - x)
//	dy/dt = x(ρ - z) - y
//	dz/dt = xy - βz
func NewLorenz() (*system.System, error) {
	x, y, z := symbolic.Var("x"), symbolic.Var("y"), symbolic.Var("z")
	sigma, rho, beta := symbolic.Param("sigma"), symbolic.Param("rho"), symbolic.Param("beta")

	return system.New("lorenz", []symbolic.Equation{
		eq(deriv(ex(x)), mul(ex(sigma), sub(ex(y), ex(x)))),
		eq(deriv(ex(y)), sub(mul(ex(x), sub(ex(rho), ex(z))), ex(y))),
		eq(deriv(ex(z)), sub(mul(ex(x), ex(y)), mul(ex(beta), ex(z)))),
	},
		system.WithIndependentVariable(tv),
		system.WithDefaults(defaults(
			x, 1.0, y, 1.0, z, 1.0,
			sigma, 10.0, rho, 28.0, beta, 8.0/3.0,
		)),
	)
}

func NewRossler() (*system.System, error) {
	x, y, z := symbolic.Var("x"), symbolic.Var("y"), symbolic.Var("z")
	a, b, c := symbolic.Param("a"), symbolic.Param("b"), symbolic.Param("c")

	return system.New("rossler", []symbolic.Equation{
		eq(deriv(ex(x)), sub(neg(ex(y)), ex(z))),
		eq(deriv(ex(y)), add(ex(x), mul(ex(a), ex(y)))),
		eq(deriv(ex(z)), add(ex(b), mul(ex(z), sub(ex(x), ex(c))))),
	},
		system.WithIndependentVariable(tv),
		system.WithDefaults(defaults(
			x, 1.0, y, 1.0, z, 1.0,
			a, 0.2, b, 0.2, c, 5.7,
		)),
	)
}

// NewDuffing builds the forced Duffing oscillator, the only library model
// with an explicit time dependence.
//
//	dx/dt = v
//	dv/dt = -δv - αx - βx³ + γcos(ωt)
func NewDuffing() (*system.System, error) {
	x, v := symbolic.Var("x"), symbolic.Var("v")
	delta, alpha, beta := symbolic.Param("delta"), symbolic.Param("alpha"), symbolic.Param("beta")
	gamma, omega := symbolic.Param("gamma"), symbolic.Param("omega")

	return system.New("duffing", []symbolic.Equation{
		eq(deriv(ex(x)), ex(v)),
		eq(deriv(ex(v)), add(
			neg(mul(ex(delta), ex(v))),
			neg(mul(ex(alpha), ex(x))),
			neg(mul(ex(beta), pow(ex(x), num(3)))),
			mul(ex(gamma), symbolic.Cos(mul(ex(omega), ex(tv)))),
		)),
	},
		system.WithIndependentVariable(tv),
		system.WithDefaults(defaults(
			x, 1.0, v, 0.0,
			delta, 0.3, alpha, -1.0, beta, 1.0, gamma, 0.5, omega, 1.2,
		)),
	)
}

// NewVanDerPol builds the Van der Pol oscillator.
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
func NewVanDerPol() (*system.System, error) {
	x, y := symbolic.Var("x"), symbolic.Var("y")
	mu := symbolic.Param("mu")

	return system.New("vanderpol", []symbolic.Equation{
		eq(deriv(ex(x)), ex(y)),
		eq(deriv(ex(y)), sub(mul(ex(mu), sub(num(1), pow(ex(x), num(2))), ex(y)), ex(x))),
	},
		system.WithIndependentVariable(tv),
		system.WithDefaults(defaults(x, 2.0, y, 0.0, mu, 1.0)),
	)
}
