// Package symbolic provides the term representation shared by every stage of
// the compiler.
//
// The package defines:
//
//   - [Symbol]: named leaf quantity (independent variable, parameter, unknown)
//   - [Expr]: persistent expression tree ([Leaf], [Const], [Op])
//   - [Equation]: lhs ~ rhs pair over expressions
//   - [Matrix]: dense symbolic matrix used for derived artifacts
//
// Trees are never mutated after construction. Every rewrite ([Simplify],
// [Substitute], [Rewrite], [Derivative]) returns new nodes and reuses
// unchanged subtrees, so the same subtree may safely appear in several
// equations or cached artifacts at once.
//
// # Example
//
//	t := symbolic.IndepVar("t")
//	x := symbolic.Var("x")
//	p := symbolic.Param("p")
//	eq := symbolic.Eq(symbolic.D(x.Expr()), symbolic.Mul(symbolic.Neg(p.Expr()), x.Expr()))
//	j := symbolic.Simplify(symbolic.Derivative(eq.RHS, x)) // -p
package symbolic
