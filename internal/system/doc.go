// Package system models hierarchical equation systems and derives numeric
// artifacts from them.
//
// A [System] owns its equations, unknowns, parameters, observed equations,
// default values and an ordered list of child systems. Public accessors
// ([System.Unknowns], [System.Equations], ...) present the flattened view in
// which every symbol below the root is qualified with the chain of subsystem
// names joined by [Separator]. The independent variable is shared and never
// qualified. The tree itself is never mutated: [System.Rename] and
// [System.WithDefault] return new nodes.
//
// # Derived artifacts
//
// [System.CalculateJacobian], [System.CalculateGradient],
// [System.CalculateHessian], [System.CalculateTimeGradient] and
// [System.CalculateFactorizedW] differentiate the flattened equations and
// simplify the result. Each artifact is computed at most once per system and
// the stored value is returned on every later call.
//
// # Example
//
//	t := symbolic.IndepVar("t")
//	x, p := symbolic.Var("x"), symbolic.Param("p")
//	sys, err := system.New("decay", []symbolic.Equation{
//	    symbolic.Eq(symbolic.D(x.Expr()), symbolic.Mul(symbolic.Neg(p.Expr()), x.Expr())),
//	}, system.WithIndependentVariable(t))
//	jac, err := sys.CalculateJacobian() // [[-p]]
//
// # Thread Safety
//
// A System is immutable once constructed. The artifact cache guards each
// slot so concurrent callers observe a single computation.
package system
