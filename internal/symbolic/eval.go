package symbolic

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbound indicates a leaf with no value during numeric evaluation.
	ErrUnbound = errors.New("symbolic: unbound symbol")

	// ErrNotNumeric indicates an operation with no numeric meaning, such as D.
	ErrNotNumeric = errors.New("symbolic: expression has no numeric value")
)

// Env supplies numeric values for leaf symbols.
type Env func(Symbol) (float64, bool)

// Eval computes the numeric value of e.
func Eval(e Expr, env Env) (float64, error) {
	switch x := e.(type) {
	case *Const:
		return x.Value, nil
	case *Leaf:
		if env != nil {
			if v, ok := env(x.Sym); ok {
				return v, nil
			}
		}
		return 0, fmt.Errorf("%w: %s", ErrUnbound, x.Sym.Name)
	case *Op:
		if x.Operator == OpDiff {
			return 0, fmt.Errorf("%w: %s", ErrNotNumeric, x)
		}
		vals := make([]float64, len(x.Args))
		for i, a := range x.Args {
			v, err := Eval(a, env)
			if err != nil {
				return 0, err
			}
			vals[i] = v
		}
		return x.Operator.Eval(vals), nil
	}
	return 0, ErrNotNumeric
}

// Value returns the constant held by e after simplification.
func Value(e Expr) (float64, bool) {
	c, ok := Simplify(e).(*Const)
	if !ok {
		return 0, false
	}
	return c.Value, true
}
