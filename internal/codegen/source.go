package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/san-kum/dynsym/internal/symbolic"
)

var reserved = map[string]bool{"out": true, "u": true, "p": true, "t": true, "math": true}

// ident turns s into a valid Go identifier, falling back to def when
// nothing usable remains.
func ident(s, def string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r) && i > 0:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if strings.Trim(id, "_") == "" {
		return def
	}
	if token.IsKeyword(id) {
		return id + "_"
	}
	return id
}

type emitter struct {
	slots    map[symbolic.SymbolID]slot
	extras   []string
	usesMath bool
}

func emit(f *Func, slots map[symbolic.SymbolID]slot, sig Signature, opts Options) (string, error) {
	e := &emitter{slots: slots}
	used := map[string]bool{}
	for i, s := range sig.Extra {
		name := ident(s.Name, fmt.Sprintf("x%d", i))
		if reserved[name] || used[name] || isLocalName(name) {
			name = fmt.Sprintf("x%d_%s", i, name)
		}
		used[name] = true
		e.extras = append(e.extras, name)
	}

	var body bytes.Buffer
	for i, l := range f.locals {
		fmt.Fprintf(&body, "\tv%d := %s // %s\n", i, e.render(l.expr), l.sym.Name)
	}
	for k, o := range f.outputs {
		fmt.Fprintf(&body, "\tout[%d] = %s\n", k, e.render(o))
	}

	var src bytes.Buffer
	src.WriteString("// Code generated by dynsym. DO NOT EDIT.\n\n")
	fmt.Fprintf(&src, "package %s\n\n", ident(opts.Package, "generated"))
	if e.usesMath {
		src.WriteString("import \"math\"\n\n")
	}
	shape := fmt.Sprintf("%dx%d", f.Rows, f.Cols)
	if f.Sparse {
		shape = fmt.Sprintf("%d nonzero entries of a %dx%d", len(f.Pattern), f.Rows, f.Cols)
	}
	fmt.Fprintf(&src, "// %s writes the %s result into out.\n", f.Name, shape)
	fmt.Fprintf(&src, "func %s(out, u, p []float64, t float64", f.Name)
	for _, x := range e.extras {
		fmt.Fprintf(&src, ", %s float64", x)
	}
	src.WriteString(") {\n")
	src.Write(body.Bytes())
	src.WriteString("}\n")

	out, err := format.Source(src.Bytes())
	if err != nil {
		return "", fmt.Errorf("codegen: format %s: %w", f.Name, err)
	}
	return string(out), nil
}

func isLocalName(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

func (e *emitter) render(x symbolic.Expr) string {
	switch v := x.(type) {
	case *symbolic.Const:
		return e.num(v.Value)
	case *symbolic.Leaf:
		return e.leaf(v.Sym)
	case *symbolic.Op:
		return e.op(v)
	}
	return "0"
}

func (e *emitter) num(v float64) string {
	switch {
	case math.IsNaN(v):
		e.usesMath = true
		return "math.NaN()"
	case math.IsInf(v, 1):
		e.usesMath = true
		return "math.Inf(1)"
	case math.IsInf(v, -1):
		e.usesMath = true
		return "math.Inf(-1)"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}

func (e *emitter) leaf(s symbolic.Symbol) string {
	sl := e.slots[s.ID()]
	switch sl.kind {
	case slotU:
		return fmt.Sprintf("u[%d]", sl.index)
	case slotP:
		return fmt.Sprintf("p[%d]", sl.index)
	case slotT:
		return "t"
	case slotExtra:
		return e.extras[sl.index]
	}
	return fmt.Sprintf("v%d", sl.index)
}

func (e *emitter) op(x *symbolic.Op) string {
	if len(x.Args) == 0 {
		if x.Operator == symbolic.OpMul {
			return "1"
		}
		return "0"
	}
	switch x.Operator {
	case symbolic.OpAdd:
		return "(" + e.join(x.Args, " + ") + ")"
	case symbolic.OpMul:
		if c, ok := x.Args[0].(*symbolic.Const); ok && c.Value == -1 && len(x.Args) > 1 {
			return "(-" + e.join(x.Args[1:], " * ") + ")"
		}
		return "(" + e.join(x.Args, " * ") + ")"
	case symbolic.OpPow:
		base := e.render(x.Args[0])
		if c, ok := x.Args[1].(*symbolic.Const); ok {
			switch c.Value {
			case 1:
				return base
			case 2:
				return "(" + base + " * " + base + ")"
			case -1:
				return "(1 / " + base + ")"
			case 0.5:
				e.usesMath = true
				return "math.Sqrt(" + base + ")"
			}
		}
		e.usesMath = true
		return "math.Pow(" + base + ", " + e.render(x.Args[1]) + ")"
	}
	e.usesMath = true
	name := x.Operator.String()
	return "math." + strings.ToUpper(name[:1]) + name[1:] + "(" + e.render(x.Args[0]) + ")"
}

func (e *emitter) join(args []symbolic.Expr, sep string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.render(a)
	}
	return strings.Join(parts, sep)
}
