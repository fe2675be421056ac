package symbolic

// Derivative returns the partial derivative of e with respect to s. Other
// symbols, unknowns included, are held constant. The result is not
// simplified; an expression free of s yields the zero constant.
func Derivative(e Expr, s Symbol) Expr {
	if !Contains(e, s) {
		return Num(0)
	}
	x, ok := e.(*Op)
	if !ok {
		// only a leaf equal to s reaches here
		return Num(1)
	}
	args := x.Args
	switch x.Operator {
	case OpAdd:
		terms := make([]Expr, 0, len(args))
		for _, a := range args {
			if Contains(a, s) {
				terms = append(terms, Derivative(a, s))
			}
		}
		return sum(terms)
	case OpMul:
		terms := make([]Expr, 0, len(args))
		for i, a := range args {
			if !Contains(a, s) {
				continue
			}
			factors := make([]Expr, len(args))
			copy(factors, args)
			factors[i] = Derivative(a, s)
			terms = append(terms, Mul(factors...))
		}
		return sum(terms)
	case OpPow:
		base, exp := args[0], args[1]
		switch {
		case !Contains(exp, s):
			return Mul(exp, Pow(base, Add(exp, Num(-1))), Derivative(base, s))
		case !Contains(base, s):
			return Mul(x, Log(base), Derivative(exp, s))
		default:
			return Mul(x, Add(
				Mul(Derivative(exp, s), Log(base)),
				Mul(exp, Derivative(base, s), Pow(base, Num(-1))),
			))
		}
	case OpDiff:
		return D(Derivative(args[0], s))
	}
	u := args[0]
	return Mul(outer(x.Operator, u), Derivative(u, s))
}

// outer is the derivative of a unary elementary function evaluated at u.
func outer(op Operator, u Expr) Expr {
	switch op {
	case OpSin:
		return Cos(u)
	case OpCos:
		return Neg(Sin(u))
	case OpTan:
		return Pow(Cos(u), Num(-2))
	case OpExp:
		return Exp(u)
	case OpLog:
		return Pow(u, Num(-1))
	case OpSqrt:
		return Mul(Num(0.5), Pow(Sqrt(u), Num(-1)))
	case OpTanh:
		return Sub(Num(1), Pow(Tanh(u), Num(2)))
	}
	panic("symbolic: no derivative rule for " + op.String())
}

func sum(terms []Expr) Expr {
	switch len(terms) {
	case 0:
		return Num(0)
	case 1:
		return terms[0]
	}
	return Add(terms...)
}
