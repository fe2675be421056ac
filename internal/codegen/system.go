package codegen

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynsym/internal/dynamo"
	"github.com/san-kum/dynsym/internal/symbolic"
	"github.com/san-kum/dynsym/internal/system"
)

// SignatureOf returns the standard (u, p, t, extra...) signature of sys.
func SignatureOf(sys *system.System, extra ...symbolic.Symbol) Signature {
	sig := Signature{
		Unknowns:   sys.Unknowns(),
		Parameters: sys.Parameters(),
		Extra:      extra,
	}
	if iv, ok := sys.IndependentVariable(); ok {
		sig.IndependentVariable = &iv
	}
	return sig
}

func named(opts Options, name string) Options {
	opts.Name = opts.Name + name
	return opts
}

// GenerateFunction compiles the right-hand side of every differential
// equation and the residual of every algebraic one.
func GenerateFunction(sys *system.System, opts Options) (*Func, error) {
	eqs := sys.Equations()
	exprs := make([]symbolic.Expr, len(eqs))
	for i, eq := range eqs {
		exprs[i] = eq.Output()
	}
	return Build(exprs, len(exprs), 1, SignatureOf(sys), sys.Observed(), named(opts, "RHS"))
}

func GenerateTimeGradient(sys *system.System, opts Options) (*Func, error) {
	grad, err := sys.CalculateTimeGradient()
	if err != nil {
		return nil, err
	}
	return Build(grad, len(grad), 1, SignatureOf(sys), nil, named(opts, "TimeGradient"))
}

func GenerateJacobian(sys *system.System, opts Options) (*Func, error) {
	jac, err := sys.CalculateJacobian()
	if err != nil {
		return nil, err
	}
	return Build(jac.Data, jac.Rows, jac.Cols, SignatureOf(sys), nil, named(opts, "Jacobian"))
}

func GenerateGradient(sys *system.System, opts Options) (*Func, error) {
	grad, err := sys.CalculateGradient()
	if err != nil {
		return nil, err
	}
	return Build(grad, len(grad), 1, SignatureOf(sys), nil, named(opts, "Gradient"))
}

func GenerateHessian(sys *system.System, opts Options) (*Func, error) {
	hess, err := sys.CalculateHessian()
	if err != nil {
		return nil, err
	}
	return Build(hess.Data, hess.Rows, hess.Cols, SignatureOf(sys), nil, named(opts, "Hessian"))
}

// GenerateLoss compiles the flattened scalar objective.
func GenerateLoss(sys *system.System, opts Options) (*Func, error) {
	loss, ok := sys.Loss()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no loss", system.ErrInvalidShape, sys.Name())
	}
	return Build([]symbolic.Expr{loss}, 1, 1, SignatureOf(sys), sys.Observed(), named(opts, "Loss"))
}

// GenerateObserved compiles the right-hand sides of the observed equations,
// one output per equation.
func GenerateObserved(sys *system.System, opts Options) (*Func, error) {
	obs := sys.Observed()
	exprs := make([]symbolic.Expr, len(obs))
	for i, eq := range obs {
		exprs[i] = eq.RHS
	}
	return Build(exprs, len(exprs), 1, SignatureOf(sys), obs, named(opts, "Observed"))
}

// W holds the compiled matrix W = γM - J and its symbolic LU factors. γ is
// passed as the single extra argument.
type W struct {
	Matrix *Func
	Lower  *Func
	Upper  *Func
	n      int
}

func GenerateFactorizedW(sys *system.System, opts Options) (*W, error) {
	fact, err := sys.CalculateFactorizedW()
	if err != nil {
		return nil, err
	}
	sig := SignatureOf(sys, fact.Gamma)
	n := fact.W.Rows
	w := &W{n: n}
	if w.Matrix, err = Build(fact.W.Data, n, n, sig, nil, named(opts, "W")); err != nil {
		return nil, err
	}
	if w.Lower, err = Build(fact.L.Data, n, n, sig, nil, named(opts, "WLower")); err != nil {
		return nil, err
	}
	if w.Upper, err = Build(fact.U.Data, n, n, sig, nil, named(opts, "WUpper")); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *W) Dim() int { return w.n }

// Solve solves W x = b by forward and back substitution with the evaluated
// symbolic factors.
func (w *W) Solve(a Args, b []float64) ([]float64, error) {
	if err := dynamo.CheckDim("b", b, w.n); err != nil {
		return nil, err
	}
	l, err := w.Lower.Matrix(a)
	if err != nil {
		return nil, err
	}
	u, err := w.Upper.Matrix(a)
	if err != nil {
		return nil, err
	}
	lt := mat.NewTriDense(w.n, mat.Lower, l.RawMatrix().Data)
	ut := mat.NewTriDense(w.n, mat.Upper, u.RawMatrix().Data)

	var y, x mat.VecDense
	if err := y.SolveVec(lt, mat.NewVecDense(w.n, slices.Clone(b))); err != nil {
		return nil, fmt.Errorf("codegen: forward substitution: %w", err)
	}
	if err := x.SolveVec(ut, &y); err != nil {
		return nil, fmt.Errorf("codegen: back substitution: %w", err)
	}
	return slices.Clone(x.RawVector().Data), nil
}

// SolveLU solves W x = b with a numeric partial-pivoting LU of the
// evaluated W.
func (w *W) SolveLU(a Args, b []float64) ([]float64, error) {
	if err := dynamo.CheckDim("b", b, w.n); err != nil {
		return nil, err
	}
	m, err := w.Matrix.Matrix(a)
	if err != nil {
		return nil, err
	}
	var lu mat.LU
	lu.Factorize(m)
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(w.n, slices.Clone(b))); err != nil {
		return nil, fmt.Errorf("codegen: lu solve: %w", err)
	}
	return slices.Clone(x.RawVector().Data), nil
}

// ODE adapts a compiled right-hand side to dynamo.System.
type ODE struct {
	f *Func
}

func NewODE(f *Func) (*ODE, error) {
	if !f.native {
		return nil, ErrNotNative
	}
	if f.Cols != 1 || f.Sparse {
		return nil, ErrNotVector
	}
	if f.Rows != f.numU {
		return nil, fmt.Errorf("%w: %d outputs for %d unknowns", ErrShape, f.Rows, f.numU)
	}
	return &ODE{f: f}, nil
}

func (o *ODE) Derive(x dynamo.State, p dynamo.Params, t float64) (dynamo.State, error) {
	v, err := o.f.Eval(Args{U: x, P: p, T: t})
	if err != nil {
		return nil, err
	}
	return dynamo.State(v), nil
}

func (o *ODE) StateDim() int { return o.f.numU }
func (o *ODE) ParamDim() int { return o.f.numP }

// StiffODE is an ODE that also solves with its factorized W, for linearly
// implicit integrators.
type StiffODE struct {
	*ODE
	w *W
}

func NewStiffODE(f *Func, w *W) (*StiffODE, error) {
	ode, err := NewODE(f)
	if err != nil {
		return nil, err
	}
	if !w.Lower.native || !w.Upper.native {
		return nil, ErrNotNative
	}
	if w.Dim() != ode.StateDim() {
		return nil, fmt.Errorf("%w: W is %dx%d for %d unknowns", ErrShape, w.Dim(), w.Dim(), ode.StateDim())
	}
	return &StiffODE{ODE: ode, w: w}, nil
}

// SolveW solves W(γ) Δ = b at (x, p, t). When a pivot of the symbolic
// factors vanishes at this point it falls back to SolveLU.
func (s *StiffODE) SolveW(x dynamo.State, p dynamo.Params, t, gamma float64, b []float64) ([]float64, error) {
	a := Args{U: x, P: p, T: t, Extra: []float64{gamma}}
	sol, err := s.w.Solve(a, b)
	if err == nil && finite(sol) {
		return sol, nil
	}
	return s.w.SolveLU(a, b)
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
