// Package codegen turns symbolic expressions into callable functions.
//
// [Build] binds every leaf of a list of expressions to a slot of the
// function's arguments (unknowns u, parameters p, the independent variable t
// and extra scalars such as γ) and produces a [Func]. With [Native] the Func
// is compiled into a closure tree and can be evaluated directly; with
// [GoSource] only gofmt'ed Go source is produced. The source is available
// for both targets.
//
// The Generate functions wrap Build for the artifacts of a
// [system.System]: the right-hand side, its Jacobian, time gradient,
// gradient, Hessian, factorized W and observed outputs.
package codegen
