// Package dynamo provides the numeric primitives generated functions are
// evaluated with.
//
// The package defines the vector types and the ODE interface that compiled
// right-hand sides satisfy:
//
//   - [State]: vector of unknown values
//   - [Params]: vector of parameter values
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, p, t))
//   - [Sample]: parallel evaluation of a System over many inputs
//
// # Example
//
//	rhs, _ := codegen.GenerateFunction(sys, codegen.Options{})
//	ode, _ := codegen.NewODE(rhs)
//	dx, _ := ode.Derive(x0, p, 0)
//
// # Thread Safety
//
// Systems produced by codegen are safe for concurrent use; [Sample] relies
// on that to fan evaluations out across goroutines.
package dynamo
