package system

import (
	"fmt"

	"github.com/san-kum/dynsym/internal/symbolic"
)

// Gamma is the step-size parameter of W = γM - J.
var Gamma = symbolic.Param("γ")

// Factorization is the symbolic LU decomposition of W = γM - J, with L unit
// lower triangular and U upper triangular so that W = LU.
type Factorization struct {
	Gamma symbolic.Symbol
	Mass  *symbolic.Matrix
	W     *symbolic.Matrix
	L     *symbolic.Matrix
	U     *symbolic.Matrix
}

// outputs returns the per-equation expressions with observed outputs
// expanded so differentiation sees through them.
func (s *System) outputs() []symbolic.Expr {
	v := s.mustView()
	obs := symbolic.Substitution(v.observed)
	out := make([]symbolic.Expr, len(v.eqs))
	for i, eq := range v.eqs {
		out[i] = symbolic.Expand(eq.Output(), obs)
	}
	return out
}

func derive(e symbolic.Expr, wrt symbolic.Symbol) symbolic.Expr {
	return symbolic.Simplify(symbolic.Derivative(e, wrt))
}

// CalculateTimeGradient returns the partial derivative of each equation's
// output with respect to the independent variable.
func (s *System) CalculateTimeGradient() ([]symbolic.Expr, error) {
	return s.cache.tgrad.get(s.name, "tgrad", func() ([]symbolic.Expr, error) {
		iv, ok := s.IndependentVariable()
		if !ok {
			return nil, ErrNoIndependentVariable
		}
		outs := s.outputs()
		grad := make([]symbolic.Expr, len(outs))
		for i, o := range outs {
			grad[i] = derive(o, iv)
		}
		return grad, nil
	})
}

// CalculateJacobian returns J with J[i][j] = d output_i / d u_j over the
// flattened equations and unknowns.
func (s *System) CalculateJacobian() (*symbolic.Matrix, error) {
	return s.cache.jacobian.get(s.name, "jacobian", func() (*symbolic.Matrix, error) {
		outs := s.outputs()
		unknowns := s.mustView().unknowns
		m := symbolic.NewMatrix(len(outs), len(unknowns))
		for i, o := range outs {
			for j, u := range unknowns {
				m.Set(i, j, derive(o, u))
			}
		}
		return m, nil
	})
}

// scalar returns the objective of a scalar system: the loss when one is set,
// otherwise the right-hand side of the only equation.
func (s *System) scalar(op string) (symbolic.Expr, error) {
	v := s.mustView()
	obs := symbolic.Substitution(v.observed)
	if v.loss != nil {
		return symbolic.Expand(v.loss, obs), nil
	}
	if len(v.eqs) != 1 {
		return nil, &InvalidShapeError{
			System:    s.name,
			Op:        op,
			Want:      "a loss or exactly one equation",
			Equations: len(v.eqs),
			Unknowns:  len(v.unknowns),
		}
	}
	return symbolic.Expand(v.eqs[0].RHS, obs), nil
}

func (s *System) CalculateGradient() ([]symbolic.Expr, error) {
	return s.cache.grad.get(s.name, "gradient", func() ([]symbolic.Expr, error) {
		f, err := s.scalar("gradient")
		if err != nil {
			return nil, err
		}
		unknowns := s.mustView().unknowns
		grad := make([]symbolic.Expr, len(unknowns))
		for j, u := range unknowns {
			grad[j] = derive(f, u)
		}
		return grad, nil
	})
}

// CalculateHessian differentiates the cached gradient once more.
func (s *System) CalculateHessian() (*symbolic.Matrix, error) {
	return s.cache.hessian.get(s.name, "hessian", func() (*symbolic.Matrix, error) {
		if _, err := s.scalar("hessian"); err != nil {
			return nil, err
		}
		grad, err := s.CalculateGradient()
		if err != nil {
			return nil, err
		}
		unknowns := s.mustView().unknowns
		m := symbolic.NewMatrix(len(unknowns), len(unknowns))
		for i, g := range grad {
			for j, u := range unknowns {
				m.Set(i, j, derive(g, u))
			}
		}
		return m, nil
	})
}

// MassMatrix has a 1 at (i, j) when equation i is D(u_j) ~ f and zeros
// elsewhere, so algebraic equations contribute zero rows.
func (s *System) MassMatrix() *symbolic.Matrix {
	v := s.mustView()
	index := make(map[symbolic.SymbolID]int, len(v.unknowns))
	for j, u := range v.unknowns {
		index[u.ID()] = j
	}
	m := symbolic.NewMatrix(len(v.eqs), len(v.unknowns))
	for i, eq := range v.eqs {
		if x, ok := eq.Differentiated(); ok {
			if j, ok := index[x.ID()]; ok {
				m.Set(i, j, symbolic.Num(1))
			}
		}
	}
	return m
}

// CalculateFactorizedW forms W = γM - J and factors it without pivoting.
func (s *System) CalculateFactorizedW() (*Factorization, error) {
	return s.cache.wfact.get(s.name, "factorized W", func() (*Factorization, error) {
		jac, err := s.CalculateJacobian()
		if err != nil {
			return nil, err
		}
		if jac.Rows != jac.Cols {
			return nil, &InvalidShapeError{
				System:    s.name,
				Op:        "factorized W",
				Want:      "a square Jacobian",
				Equations: jac.Rows,
				Unknowns:  jac.Cols,
			}
		}
		mass := s.MassMatrix()
		n := jac.Rows
		w := symbolic.NewMatrix(n, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				w.Set(i, j, symbolic.Simplify(symbolic.Sub(
					symbolic.Mul(Gamma.Expr(), mass.At(i, j)),
					jac.At(i, j),
				)))
			}
		}
		l, u, err := doolittle(w)
		if err != nil {
			return nil, err
		}
		return &Factorization{Gamma: Gamma, Mass: mass, W: w, L: l, U: u}, nil
	})
}

func doolittle(w *symbolic.Matrix) (*symbolic.Matrix, *symbolic.Matrix, error) {
	n := w.Rows
	l := symbolic.NewMatrix(n, n)
	u := symbolic.NewMatrix(n, n)
	for i := 0; i < n; i++ {
		l.Set(i, i, symbolic.Num(1))
	}
	for k := 0; k < n; k++ {
		for j := k; j < n; j++ {
			terms := []symbolic.Expr{w.At(k, j)}
			for m := 0; m < k; m++ {
				terms = append(terms, symbolic.Neg(symbolic.Mul(l.At(k, m), u.At(m, j))))
			}
			u.Set(k, j, symbolic.Simplify(symbolic.Add(terms...)))
		}
		pivot := u.At(k, k)
		if symbolic.IsZero(pivot) {
			return nil, nil, fmt.Errorf("%w: row %d", ErrSingularPivot, k)
		}
		for i := k + 1; i < n; i++ {
			terms := []symbolic.Expr{w.At(i, k)}
			for m := 0; m < k; m++ {
				terms = append(terms, symbolic.Neg(symbolic.Mul(l.At(i, m), u.At(m, k))))
			}
			l.Set(i, k, symbolic.Simplify(symbolic.Div(symbolic.Add(terms...), pivot)))
		}
	}
	return l, u, nil
}

// JacobianSparsity returns the structurally nonzero entries of the Jacobian.
func (s *System) JacobianSparsity() ([]symbolic.Index, error) {
	jac, err := s.CalculateJacobian()
	if err != nil {
		return nil, err
	}
	return jac.Sparsity(), nil
}
