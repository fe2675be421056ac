package symbolic

import (
	"math"
	"sort"
)

// Simplify rewrites e bottom-up into canonical form: nested sums and products
// are flattened, constants folded, identities dropped, like terms collected,
// equal bases merged and operands ordered by their printed form. The result
// is a fixed point of Simplify.
func Simplify(e Expr) Expr {
	x, ok := e.(*Op)
	if !ok {
		return e
	}
	args := make([]Expr, len(x.Args))
	for i, a := range x.Args {
		args[i] = Simplify(a)
	}
	switch x.Operator {
	case OpAdd:
		return simplifyAdd(args, x.Type)
	case OpMul:
		return simplifyMul(args, x.Type)
	case OpPow:
		return simplifyPow(args[0], args[1])
	case OpDiff:
		if IsConst(args[0]) {
			return Num(0)
		}
		return &Op{Operator: OpDiff, Args: args, Type: x.Type}
	}
	return simplifyFunc(x.Operator, args[0])
}

type term struct {
	coeff float64
	base  Expr
}

func simplifyAdd(args []Expr, typ ValueType) Expr {
	flat := make([]Expr, 0, len(args))
	for _, a := range args {
		if op, ok := a.(*Op); ok && op.Operator == OpAdd {
			flat = append(flat, op.Args...)
			continue
		}
		flat = append(flat, a)
	}

	constant := 0.0
	var terms []term
	index := map[uint64][]int{}
	for _, a := range flat {
		if c, ok := a.(*Const); ok {
			constant += c.Value
			continue
		}
		coeff, base := splitCoeff(a)
		h := Hash(base)
		merged := false
		for _, i := range index[h] {
			if Equal(terms[i].base, base) {
				terms[i].coeff += coeff
				merged = true
				break
			}
		}
		if !merged {
			index[h] = append(index[h], len(terms))
			terms = append(terms, term{coeff: coeff, base: base})
		}
	}

	// order by base so that a - b prints as written
	bases := make([]Expr, 0, len(terms))
	coeffs := make(map[Expr]float64, len(terms))
	for _, t := range terms {
		if t.coeff != 0 {
			bases = append(bases, t.base)
			coeffs[t.base] = t.coeff
		}
	}
	sortByString(bases)
	out := make([]Expr, 0, len(bases)+1)
	for _, b := range bases {
		if c := coeffs[b]; c != 1 {
			out = append(out, simplifyMul([]Expr{Num(c), b}, Real))
			continue
		}
		out = append(out, b)
	}
	if constant != 0 {
		out = append(out, Num(constant))
	}
	switch len(out) {
	case 0:
		return Num(0)
	case 1:
		return out[0]
	}
	return &Op{Operator: OpAdd, Args: out, Type: typ}
}

// splitCoeff separates the leading numeric coefficient of a canonical product.
func splitCoeff(e Expr) (float64, Expr) {
	op, ok := e.(*Op)
	if !ok || op.Operator != OpMul || len(op.Args) < 2 {
		return 1, e
	}
	c, ok := op.Args[0].(*Const)
	if !ok {
		return 1, e
	}
	rest := op.Args[1:]
	if len(rest) == 1 {
		return c.Value, rest[0]
	}
	return c.Value, &Op{Operator: OpMul, Args: rest, Type: op.Type}
}

type power struct {
	base Expr
	exps []Expr
}

func simplifyMul(args []Expr, typ ValueType) Expr {
	flat := make([]Expr, 0, len(args))
	for _, a := range args {
		if op, ok := a.(*Op); ok && op.Operator == OpMul {
			flat = append(flat, op.Args...)
			continue
		}
		flat = append(flat, a)
	}

	coeff := 1.0
	var powers []power
	index := map[uint64][]int{}
	for _, a := range flat {
		if c, ok := a.(*Const); ok {
			coeff *= c.Value
			continue
		}
		base, exp := a, Num(1)
		if op, ok := a.(*Op); ok && op.Operator == OpPow {
			base, exp = op.Args[0], op.Args[1]
		}
		h := Hash(base)
		merged := false
		for _, i := range index[h] {
			if Equal(powers[i].base, base) {
				powers[i].exps = append(powers[i].exps, exp)
				merged = true
				break
			}
		}
		if !merged {
			index[h] = append(index[h], len(powers))
			powers = append(powers, power{base: base, exps: []Expr{exp}})
		}
	}
	if coeff == 0 {
		return Num(0)
	}

	out := make([]Expr, 0, len(powers)+1)
	for _, p := range powers {
		exp := p.exps[0]
		if len(p.exps) > 1 {
			exp = simplifyAdd(p.exps, Real)
		}
		f := simplifyPow(p.base, exp)
		switch v := f.(type) {
		case *Const:
			coeff *= v.Value
		case *Op:
			if v.Operator == OpMul {
				// distributed integer power of a product
				c, rest := splitCoeff(v)
				coeff *= c
				if op, ok := rest.(*Op); ok && op.Operator == OpMul {
					out = append(out, op.Args...)
				} else {
					out = append(out, rest)
				}
				continue
			}
			out = append(out, f)
		default:
			out = append(out, f)
		}
	}
	if coeff == 0 {
		return Num(0)
	}
	sortByString(out)
	if coeff != 1 || len(out) == 0 {
		out = append([]Expr{Num(coeff)}, out...)
	}
	if len(out) == 1 {
		return out[0]
	}
	return &Op{Operator: OpMul, Args: out, Type: typ}
}

func simplifyPow(base, exp Expr) Expr {
	ec, expConst := exp.(*Const)
	bc, baseConst := base.(*Const)
	switch {
	case expConst && ec.Value == 0:
		return Num(1)
	case expConst && ec.Value == 1:
		return base
	case baseConst && bc.Value == 1:
		return Num(1)
	case baseConst && expConst:
		v := math.Pow(bc.Value, ec.Value)
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return Num(v)
		}
	}
	if expConst && isInteger(ec.Value) {
		if inner, ok := base.(*Op); ok {
			switch inner.Operator {
			case OpPow:
				if ic, ok := inner.Args[1].(*Const); ok {
					return simplifyPow(inner.Args[0], Num(ic.Value*ec.Value))
				}
			case OpMul:
				factors := make([]Expr, len(inner.Args))
				for i, f := range inner.Args {
					factors[i] = simplifyPow(f, exp)
				}
				return simplifyMul(factors, inner.Type)
			}
		}
	}
	return &Op{Operator: OpPow, Args: []Expr{base, exp}, Type: Real}
}

func simplifyFunc(op Operator, arg Expr) Expr {
	if c, ok := arg.(*Const); ok {
		if v := op.Eval([]float64{c.Value}); !math.IsNaN(v) && !math.IsInf(v, 0) {
			return Num(v)
		}
	}
	if inner, ok := arg.(*Op); ok {
		switch {
		case op == OpExp && inner.Operator == OpLog,
			op == OpLog && inner.Operator == OpExp:
			return inner.Args[0]
		}
	}
	return &Op{Operator: op, Args: []Expr{arg}, Type: Real}
}

func isInteger(v float64) bool { return v == math.Trunc(v) && !math.IsInf(v, 0) }

func sortByString(exprs []Expr) {
	if len(exprs) < 2 {
		return
	}
	keys := make(map[Expr]string, len(exprs))
	for _, e := range exprs {
		keys[e] = e.String()
	}
	sort.SliceStable(exprs, func(i, j int) bool { return keys[exprs[i]] < keys[exprs[j]] })
}
