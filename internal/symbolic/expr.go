package symbolic

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a node of a persistent expression tree. The set of node types is
// closed: *Leaf, *Const and *Op.
type Expr interface {
	String() string
	sealed()
}

type Leaf struct{ Sym Symbol }

type Const struct{ Value float64 }

type Op struct {
	Operator Operator
	Args     []Expr
	Type     ValueType
}

func (*Leaf) sealed()  {}
func (*Const) sealed() {}
func (*Op) sealed()    {}

type Operator uint8

const (
	OpAdd Operator = iota
	OpMul
	OpPow
	OpSin
	OpCos
	OpTan
	OpExp
	OpLog
	OpSqrt
	OpTanh
	OpDiff
)

// arity -1 marks variadic operators.
var operators = [...]struct {
	name  string
	arity int
}{
	OpAdd:  {"+", -1},
	OpMul:  {"*", -1},
	OpPow:  {"^", 2},
	OpSin:  {"sin", 1},
	OpCos:  {"cos", 1},
	OpTan:  {"tan", 1},
	OpExp:  {"exp", 1},
	OpLog:  {"log", 1},
	OpSqrt: {"sqrt", 1},
	OpTanh: {"tanh", 1},
	OpDiff: {"D", 1},
}

func (o Operator) String() string {
	if int(o) < len(operators) {
		return operators[o].name
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

func (o Operator) Arity() int { return operators[o].arity }

// IsFunction reports whether o is a named elementary function of one argument.
func (o Operator) IsFunction() bool { return o >= OpSin && o <= OpTanh }

// Eval applies o to numeric arguments. OpDiff has no numeric meaning and
// yields NaN.
func (o Operator) Eval(args []float64) float64 {
	switch o {
	case OpAdd:
		acc := 0.0
		for _, a := range args {
			acc += a
		}
		return acc
	case OpMul:
		acc := 1.0
		for _, a := range args {
			acc *= a
		}
		return acc
	case OpPow:
		return math.Pow(args[0], args[1])
	case OpSin:
		return math.Sin(args[0])
	case OpCos:
		return math.Cos(args[0])
	case OpTan:
		return math.Tan(args[0])
	case OpExp:
		return math.Exp(args[0])
	case OpLog:
		return math.Log(args[0])
	case OpSqrt:
		return math.Sqrt(args[0])
	case OpTanh:
		return math.Tanh(args[0])
	}
	return math.NaN()
}

func IsLeaf(e Expr) bool      { _, ok := e.(*Leaf); return ok }
func IsConst(e Expr) bool     { _, ok := e.(*Const); return ok }
func IsOperation(e Expr) bool { _, ok := e.(*Op); return ok }

// IsZero reports whether e is structurally the zero constant.
func IsZero(e Expr) bool { c, ok := e.(*Const); return ok && c.Value == 0 }
func IsOne(e Expr) bool  { c, ok := e.(*Const); return ok && c.Value == 1 }

// Operands returns the arguments of an operation, or nil for leaves.
func Operands(e Expr) []Expr {
	if op, ok := e.(*Op); ok {
		return op.Args
	}
	return nil
}

func (l *Leaf) String() string { return l.Sym.Name }

func (c *Const) String() string { return formatNum(c.Value) }

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (o *Op) String() string {
	switch o.Operator {
	case OpAdd:
		if len(o.Args) == 0 {
			return "0"
		}
		var sb strings.Builder
		for i, a := range o.Args {
			if i == 0 {
				sb.WriteString(a.String())
				continue
			}
			if n, ok := negated(a); ok {
				sb.WriteString(" - ")
				sb.WriteString(wrapIf(n, isSum(n)))
			} else {
				sb.WriteString(" + ")
				sb.WriteString(a.String())
			}
		}
		return sb.String()
	case OpMul:
		if len(o.Args) == 0 {
			return "1"
		}
		args := o.Args
		prefix := ""
		if c, ok := args[0].(*Const); ok && c.Value == -1 && len(args) > 1 {
			prefix = "-"
			args = args[1:]
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = wrapIf(a, isSum(a))
		}
		return prefix + strings.Join(parts, "*")
	case OpPow:
		base, exp := o.Args[0], o.Args[1]
		return wrapIf(base, isCompound(base) || isNegConst(base)) + "^" + wrapIf(exp, isCompound(exp))
	default:
		parts := make([]string, len(o.Args))
		for i, a := range o.Args {
			parts[i] = a.String()
		}
		return o.Operator.String() + "(" + strings.Join(parts, ", ") + ")"
	}
}

func wrapIf(e Expr, cond bool) string {
	if cond {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func isSum(e Expr) bool {
	op, ok := e.(*Op)
	return ok && op.Operator == OpAdd
}

func isCompound(e Expr) bool {
	op, ok := e.(*Op)
	return ok && (op.Operator == OpAdd || op.Operator == OpMul || op.Operator == OpPow)
}

func isNegConst(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.Value < 0
}

// negated returns -e when e carries a negative leading coefficient.
func negated(e Expr) (Expr, bool) {
	switch x := e.(type) {
	case *Const:
		if x.Value < 0 {
			return Num(-x.Value), true
		}
	case *Op:
		if x.Operator != OpMul || len(x.Args) < 2 {
			return nil, false
		}
		c, ok := x.Args[0].(*Const)
		if !ok || c.Value >= 0 {
			return nil, false
		}
		rest := x.Args[1:]
		if c.Value == -1 {
			if len(rest) == 1 {
				return rest[0], true
			}
			return &Op{Operator: OpMul, Args: rest, Type: x.Type}, true
		}
		args := append([]Expr{Num(-c.Value)}, rest...)
		return &Op{Operator: OpMul, Args: args, Type: x.Type}, true
	}
	return nil, false
}
