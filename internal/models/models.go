// Package models is a library of equation systems used by the CLI and as
// test fixtures.
package models

import (
	"github.com/san-kum/dynsym/internal/symbolic"
)

var (
	tv    = symbolic.IndepVar("t")
	num   = symbolic.Num
	add   = symbolic.Add
	mul   = symbolic.Mul
	sub   = symbolic.Sub
	div   = symbolic.Div
	neg   = symbolic.Neg
	pow   = symbolic.Pow
	eq    = symbolic.Eq
	deriv = symbolic.D
)

func ex(s symbolic.Symbol) symbolic.Expr { return s.Expr() }

// defaults builds a binding set from alternating symbol/value pairs.
func defaults(entries ...any) symbolic.Bindings {
	b := symbolic.Bindings{}
	for i := 0; i+1 < len(entries); i += 2 {
		s := entries[i].(symbolic.Symbol)
		b.Set(s, symbolic.Num(entries[i+1].(float64)))
	}
	return b
}
