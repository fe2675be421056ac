package codegen

import (
	"math"

	"github.com/san-kum/dynsym/internal/symbolic"
)

type frame struct {
	u, p, extra, locals []float64
	t                   float64
}

type node func(*frame) float64

var unary = map[symbolic.Operator]func(float64) float64{
	symbolic.OpSin:  math.Sin,
	symbolic.OpCos:  math.Cos,
	symbolic.OpTan:  math.Tan,
	symbolic.OpExp:  math.Exp,
	symbolic.OpLog:  math.Log,
	symbolic.OpSqrt: math.Sqrt,
	symbolic.OpTanh: math.Tanh,
}

func (f *Func) compile(slots map[symbolic.SymbolID]slot) error {
	f.localNodes = make([]node, len(f.locals))
	for i, l := range f.locals {
		n, err := compile(l.expr, slots)
		if err != nil {
			return err
		}
		f.localNodes[i] = n
	}
	f.nodes = make([]node, len(f.outputs))
	for k, e := range f.outputs {
		n, err := compile(e, slots)
		if err != nil {
			return err
		}
		f.nodes[k] = n
	}
	return nil
}

func compile(e symbolic.Expr, slots map[symbolic.SymbolID]slot) (node, error) {
	switch x := e.(type) {
	case *symbolic.Const:
		v := x.Value
		return func(*frame) float64 { return v }, nil
	case *symbolic.Leaf:
		return compileLeaf(x.Sym, slots)
	case *symbolic.Op:
		return compileOp(x, slots)
	}
	return nil, ErrNotCompilable
}

func compileLeaf(s symbolic.Symbol, slots map[symbolic.SymbolID]slot) (node, error) {
	sl, ok := slots[s.ID()]
	if !ok {
		return nil, &UnboundSymbolError{Symbols: []symbolic.Symbol{s}}
	}
	i := sl.index
	switch sl.kind {
	case slotU:
		return func(f *frame) float64 { return f.u[i] }, nil
	case slotP:
		return func(f *frame) float64 { return f.p[i] }, nil
	case slotT:
		return func(f *frame) float64 { return f.t }, nil
	case slotExtra:
		return func(f *frame) float64 { return f.extra[i] }, nil
	}
	return func(f *frame) float64 { return f.locals[i] }, nil
}

func compileOp(x *symbolic.Op, slots map[symbolic.SymbolID]slot) (node, error) {
	if x.Operator == symbolic.OpDiff {
		return nil, ErrNotCompilable
	}
	args := make([]node, len(x.Args))
	for i, a := range x.Args {
		n, err := compile(a, slots)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}

	switch x.Operator {
	case symbolic.OpAdd:
		if len(args) == 2 {
			a, b := args[0], args[1]
			return func(f *frame) float64 { return a(f) + b(f) }, nil
		}
		return func(f *frame) float64 {
			s := 0.0
			for _, a := range args {
				s += a(f)
			}
			return s
		}, nil
	case symbolic.OpMul:
		if len(args) == 2 {
			a, b := args[0], args[1]
			return func(f *frame) float64 { return a(f) * b(f) }, nil
		}
		return func(f *frame) float64 {
			p := 1.0
			for _, a := range args {
				p *= a(f)
			}
			return p
		}, nil
	case symbolic.OpPow:
		return compilePow(args[0], args[1], x.Args[1]), nil
	}
	fn, ok := unary[x.Operator]
	if !ok {
		return nil, ErrNotCompilable
	}
	a := args[0]
	return func(f *frame) float64 { return fn(a(f)) }, nil
}

func compilePow(base, exp node, expExpr symbolic.Expr) node {
	c, ok := expExpr.(*symbolic.Const)
	if !ok {
		return func(f *frame) float64 { return math.Pow(base(f), exp(f)) }
	}
	switch c.Value {
	case 1:
		return base
	case 2:
		return func(f *frame) float64 {
			b := base(f)
			return b * b
		}
	case -1:
		return func(f *frame) float64 { return 1 / base(f) }
	case 0.5:
		return func(f *frame) float64 { return math.Sqrt(base(f)) }
	}
	v := c.Value
	return func(f *frame) float64 { return math.Pow(base(f), v) }
}
