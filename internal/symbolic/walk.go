package symbolic

// Rewrite rebuilds e with every leaf passed through fn. A nil result from fn
// keeps the leaf. Operations are rebuilt with their operator and result type
// preserved; subtrees without changes are shared with the input.
func Rewrite(e Expr, fn func(Symbol) Expr) Expr {
	switch x := e.(type) {
	case *Leaf:
		if r := fn(x.Sym); r != nil {
			return r
		}
		return x
	case *Op:
		var args []Expr
		for i, a := range x.Args {
			na := Rewrite(a, fn)
			if args == nil && na != a {
				args = make([]Expr, len(x.Args))
				copy(args, x.Args[:i])
			}
			if args != nil {
				args[i] = na
			}
		}
		if args == nil {
			return x
		}
		return &Op{Operator: x.Operator, Args: args, Type: x.Type}
	}
	return e
}

// Substitute replaces every leaf bound in b by its bound expression in a
// single pass. Bound values are not themselves rewritten.
func Substitute(e Expr, b Bindings) Expr {
	if len(b) == 0 {
		return e
	}
	return Rewrite(e, func(s Symbol) Expr {
		if v, ok := b[s.ID()]; ok {
			return v
		}
		return nil
	})
}

// Walk visits e in pre-order. Returning false from fn skips the children of
// the visited node.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	if op, ok := e.(*Op); ok {
		for _, a := range op.Args {
			Walk(a, fn)
		}
	}
}

// Symbols returns the distinct leaf symbols of e in first-appearance order.
func Symbols(e Expr) []Symbol {
	var out []Symbol
	seen := map[SymbolID]bool{}
	Walk(e, func(n Expr) bool {
		if l, ok := n.(*Leaf); ok && !seen[l.Sym.ID()] {
			seen[l.Sym.ID()] = true
			out = append(out, l.Sym)
		}
		return true
	})
	return out
}

func Contains(e Expr, s Symbol) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if found {
			return false
		}
		if l, ok := n.(*Leaf); ok && l.Sym.Equal(s) {
			found = true
		}
		return !found
	})
	return found
}

// Expand applies Substitute repeatedly until no bound symbol is left or a
// round changes nothing. Cyclic bindings stop after len(b)+1 rounds.
func Expand(e Expr, b Bindings) Expr {
	for i := 0; i <= len(b); i++ {
		next := Substitute(e, b)
		if next == e {
			break
		}
		e = next
	}
	return e
}
