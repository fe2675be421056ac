package symbolic

// Equation relates two expressions. D(x) ~ f encodes a time-derivative
// relation, any other left-hand side an algebraic one.
type Equation struct {
	LHS Expr
	RHS Expr
}

func Eq(lhs, rhs Expr) Equation { return Equation{LHS: lhs, RHS: rhs} }

// Differentiated returns x when the equation has the form D(x) ~ f.
func (e Equation) Differentiated() (Symbol, bool) {
	op, ok := e.LHS.(*Op)
	if !ok || op.Operator != OpDiff {
		return Symbol{}, false
	}
	l, ok := op.Args[0].(*Leaf)
	if !ok {
		return Symbol{}, false
	}
	return l.Sym, true
}

func (e Equation) IsDifferential() bool {
	_, ok := e.Differentiated()
	return ok
}

// Residual returns rhs - lhs.
func (e Equation) Residual() Expr {
	if IsZero(e.LHS) {
		return e.RHS
	}
	return Sub(e.RHS, e.LHS)
}

// Output is the expression a generated function computes for this equation:
// the right-hand side of a differential equation, the residual otherwise.
func (e Equation) Output() Expr {
	if e.IsDifferential() {
		return e.RHS
	}
	return e.Residual()
}

func (e Equation) Map(fn func(Expr) Expr) Equation {
	return Equation{LHS: fn(e.LHS), RHS: fn(e.RHS)}
}

func (e Equation) Equal(other Equation) bool {
	return Equal(e.LHS, other.LHS) && Equal(e.RHS, other.RHS)
}

func (e Equation) String() string { return e.LHS.String() + " ~ " + e.RHS.String() }

// Substitution turns observed equations of the form y ~ f into bindings
// y -> f. Equations whose left-hand side is not a symbol are skipped.
func Substitution(eqs []Equation) Bindings {
	b := make(Bindings, len(eqs))
	for _, eq := range eqs {
		if l, ok := eq.LHS.(*Leaf); ok {
			b[l.Sym.ID()] = eq.RHS
		}
	}
	return b
}
