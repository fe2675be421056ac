package symbolic

import "fmt"

// Constructors build raw operation nodes. They never simplify; call
// [Simplify] when a canonical form is needed.

func Num(v float64) Expr { return &Const{Value: v} }

func Add(args ...Expr) Expr { return Apply(OpAdd, args...) }
func Mul(args ...Expr) Expr { return Apply(OpMul, args...) }

func Sub(a, b Expr) Expr { return Add(a, Neg(b)) }
func Neg(a Expr) Expr    { return Mul(Num(-1), a) }
func Div(a, b Expr) Expr { return Mul(a, Pow(b, Num(-1))) }

func Pow(base, exp Expr) Expr { return Apply(OpPow, base, exp) }

func Sin(a Expr) Expr  { return Apply(OpSin, a) }
func Cos(a Expr) Expr  { return Apply(OpCos, a) }
func Tan(a Expr) Expr  { return Apply(OpTan, a) }
func Exp(a Expr) Expr  { return Apply(OpExp, a) }
func Log(a Expr) Expr  { return Apply(OpLog, a) }
func Sqrt(a Expr) Expr { return Apply(OpSqrt, a) }
func Tanh(a Expr) Expr { return Apply(OpTanh, a) }

// D is the time differential of e with respect to the independent variable.
func D(e Expr) Expr { return Apply(OpDiff, e) }

// Apply builds an operation node. It panics when the argument count does not
// match the operator arity.
func Apply(op Operator, args ...Expr) Expr {
	if int(op) >= len(operators) {
		panic(fmt.Sprintf("symbolic: unknown operator %d", op))
	}
	if n := op.Arity(); n >= 0 && len(args) != n {
		panic(fmt.Sprintf("symbolic: %s expects %d operands, got %d", op, n, len(args)))
	}
	for _, a := range args {
		if a == nil {
			panic(fmt.Sprintf("symbolic: nil operand to %s", op))
		}
	}
	cp := make([]Expr, len(args))
	copy(cp, args)
	return &Op{Operator: op, Args: cp, Type: resultType(op, cp)}
}

func resultType(op Operator, args []Expr) ValueType {
	if op != OpAdd && op != OpMul {
		return Real
	}
	for _, a := range args {
		if typeOf(a) != Integer {
			return Real
		}
	}
	return Integer
}

func typeOf(e Expr) ValueType {
	switch x := e.(type) {
	case *Leaf:
		return x.Sym.Type
	case *Const:
		if x.Value == float64(int64(x.Value)) {
			return Integer
		}
		return Real
	case *Op:
		return x.Type
	}
	return Real
}
