package codegen

import (
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynsym/internal/dynamo"
	"github.com/san-kum/dynsym/internal/symbolic"
)

type Target uint8

const (
	// Native compiles the function for in-process evaluation.
	Native Target = iota
	// GoSource emits Go source only.
	GoSource
)

func (t Target) String() string {
	if t == GoSource {
		return "go"
	}
	return "native"
}

// ParseTarget maps "native" and "go" to their Target.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "", "native":
		return Native, nil
	case "go", "source":
		return GoSource, nil
	}
	return Native, fmt.Errorf("codegen: unknown target %q", s)
}

type Options struct {
	Target Target
	// Sparse keeps only structurally nonzero entries.
	Sparse bool
	// Observed evaluates observed equations once as locals instead of
	// substituting them into every output.
	Observed bool
	// Name of the generated Go function.
	Name string
	// Package clause of the generated source.
	Package string
}

// Signature declares the arguments of a generated function.
type Signature struct {
	Unknowns            []symbolic.Symbol
	Parameters          []symbolic.Symbol
	IndependentVariable *symbolic.Symbol
	// Extra scalar arguments appended after t.
	Extra []symbolic.Symbol
}

// Args carries the numeric arguments of a call.
type Args struct {
	U     []float64
	P     []float64
	T     float64
	Extra []float64
}

type slotKind uint8

const (
	slotU slotKind = iota
	slotP
	slotT
	slotExtra
	slotLocal
)

type slot struct {
	kind  slotKind
	index int
}

func (sig Signature) slots() map[symbolic.SymbolID]slot {
	m := map[symbolic.SymbolID]slot{}
	add := func(s symbolic.Symbol, sl slot) {
		if _, ok := m[s.ID()]; !ok {
			m[s.ID()] = sl
		}
	}
	for i, s := range sig.Unknowns {
		add(s, slot{slotU, i})
	}
	for i, s := range sig.Parameters {
		add(s, slot{slotP, i})
	}
	if sig.IndependentVariable != nil {
		add(*sig.IndependentVariable, slot{slotT, 0})
	}
	for i, s := range sig.Extra {
		add(s, slot{slotExtra, i})
	}
	return m
}

type local struct {
	sym  symbolic.Symbol
	expr symbolic.Expr
}

// Func is a generated function of (u, p, t, extra...).
type Func struct {
	Name    string
	Rows    int
	Cols    int
	Sparse  bool
	Pattern []symbolic.Index

	numU, numP, numExtra int

	outputs []symbolic.Expr
	locals  []local

	native     bool
	nodes      []node
	localNodes []node
	source     string
}

// Build generates a function computing exprs, a rows x cols row-major
// matrix (cols is 1 for vectors). Observed equations supply definitions for
// symbols outside the signature.
func Build(exprs []symbolic.Expr, rows, cols int, sig Signature, observed []symbolic.Equation, opts Options) (*Func, error) {
	if rows < 0 || cols < 0 || rows*cols != len(exprs) {
		return nil, fmt.Errorf("%w: %d expressions for %dx%d", ErrShape, len(exprs), rows, cols)
	}
	name := ident(opts.Name, "Generated")
	slots := sig.slots()

	f := &Func{
		Name:     name,
		Rows:     rows,
		Cols:     cols,
		Sparse:   opts.Sparse,
		numU:     len(sig.Unknowns),
		numP:     len(sig.Parameters),
		numExtra: len(sig.Extra),
	}
	if opts.Sparse {
		for k, e := range exprs {
			if !symbolic.IsZero(e) {
				f.Pattern = append(f.Pattern, symbolic.Index{Row: k / cols, Col: k % cols})
				f.outputs = append(f.outputs, e)
			}
		}
	} else {
		f.outputs = slices.Clone(exprs)
	}

	if opts.Observed {
		locals, err := orderObserved(f.outputs, observed, slots)
		if err != nil {
			return nil, err
		}
		f.locals = locals
	} else if len(observed) > 0 {
		defs := symbolic.Substitution(observed)
		for k, e := range f.outputs {
			f.outputs[k] = symbolic.Expand(e, defs)
		}
	}

	if err := f.check(slots); err != nil {
		return nil, err
	}

	src, err := emit(f, slots, sig, opts)
	if err != nil {
		return nil, err
	}
	f.source = src

	if opts.Target == Native {
		if err := f.compile(slots); err != nil {
			return nil, err
		}
		f.native = true
	}
	slog.Debug("generated function",
		"name", f.Name,
		"target", opts.Target,
		"outputs", len(f.outputs),
		"locals", len(f.locals),
		"source_bytes", len(f.source),
	)
	return f, nil
}

// orderObserved returns the observed equations the outputs depend on,
// dependencies first, and registers them as local slots.
func orderObserved(outputs []symbolic.Expr, observed []symbolic.Equation, slots map[symbolic.SymbolID]slot) ([]local, error) {
	defs := map[symbolic.SymbolID]int{}
	for i, eq := range observed {
		if l, ok := eq.LHS.(*symbolic.Leaf); ok {
			if _, bound := slots[l.Sym.ID()]; !bound {
				defs[l.Sym.ID()] = i
			}
		}
	}

	const (
		visiting = 1
		done     = 2
	)
	state := map[int]int{}
	var order []local
	var visit func(e symbolic.Expr) error
	visit = func(e symbolic.Expr) error {
		for _, s := range symbolic.Symbols(e) {
			i, ok := defs[s.ID()]
			if !ok {
				continue
			}
			switch state[i] {
			case visiting:
				return fmt.Errorf("%w: %s", ErrObservedCycle, s.Name)
			case done:
				continue
			}
			state[i] = visiting
			if err := visit(observed[i].RHS); err != nil {
				return err
			}
			state[i] = done
			order = append(order, local{sym: s, expr: observed[i].RHS})
		}
		return nil
	}
	for _, e := range outputs {
		if err := visit(e); err != nil {
			return nil, err
		}
	}
	for i, l := range order {
		slots[l.sym.ID()] = slot{slotLocal, i}
	}
	return order, nil
}

// check reports every unbound leaf and any operation without a numeric form.
func (f *Func) check(slots map[symbolic.SymbolID]slot) error {
	var unbound []symbolic.Symbol
	seen := map[symbolic.SymbolID]bool{}
	var bad symbolic.Expr
	visit := func(e symbolic.Expr) {
		symbolic.Walk(e, func(n symbolic.Expr) bool {
			switch x := n.(type) {
			case *symbolic.Leaf:
				id := x.Sym.ID()
				if _, ok := slots[id]; !ok && !seen[id] {
					seen[id] = true
					unbound = append(unbound, x.Sym)
				}
			case *symbolic.Op:
				if x.Operator == symbolic.OpDiff && bad == nil {
					bad = x
				}
			}
			return true
		})
	}
	for _, l := range f.locals {
		visit(l.expr)
	}
	for _, e := range f.outputs {
		visit(e)
	}
	if len(unbound) > 0 {
		return &UnboundSymbolError{Symbols: unbound}
	}
	if bad != nil {
		return fmt.Errorf("%w: %s", ErrNotCompilable, bad)
	}
	return nil
}

func (f *Func) checkArgs(a Args) error {
	if err := dynamo.CheckDim("u", a.U, f.numU); err != nil {
		return err
	}
	if err := dynamo.CheckDim("p", a.P, f.numP); err != nil {
		return err
	}
	return dynamo.CheckDim("extra", a.Extra, f.numExtra)
}

// Eval computes the outputs: all rows*cols entries in row-major order for a
// dense function, the entries of Pattern for a sparse one.
func (f *Func) Eval(a Args) ([]float64, error) {
	if !f.native {
		return nil, ErrNotNative
	}
	if err := f.checkArgs(a); err != nil {
		return nil, err
	}
	fr := &frame{u: a.U, p: a.P, t: a.T, extra: a.Extra}
	if len(f.localNodes) > 0 {
		fr.locals = make([]float64, len(f.localNodes))
		for i, n := range f.localNodes {
			fr.locals[i] = n(fr)
		}
	}
	out := make([]float64, len(f.nodes))
	for k, n := range f.nodes {
		out[k] = n(fr)
	}
	return out, nil
}

// Vector evaluates a dense vector function.
func (f *Func) Vector(u, p []float64, t float64) ([]float64, error) {
	if f.Cols != 1 || f.Sparse {
		return nil, ErrNotVector
	}
	return f.Eval(Args{U: u, P: p, T: t})
}

// Matrix evaluates the function into a dense rows x cols matrix.
func (f *Func) Matrix(a Args) (*mat.Dense, error) {
	if f.Rows == 0 || f.Cols == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d matrix", ErrShape, f.Rows, f.Cols)
	}
	vals, err := f.Eval(a)
	if err != nil {
		return nil, err
	}
	if !f.Sparse {
		return mat.NewDense(f.Rows, f.Cols, vals), nil
	}
	m := mat.NewDense(f.Rows, f.Cols, nil)
	for k, idx := range f.Pattern {
		m.Set(idx.Row, idx.Col, vals[k])
	}
	return m, nil
}

// Sparse is a matrix in coordinate form.
type Sparse struct {
	Rows, Cols int
	RowIdx     []int
	ColIdx     []int
	Values     []float64
}

func (s *Sparse) At(i, j int) float64 {
	for k := range s.Values {
		if s.RowIdx[k] == i && s.ColIdx[k] == j {
			return s.Values[k]
		}
	}
	return 0
}

func (s *Sparse) Dense() *mat.Dense {
	m := mat.NewDense(s.Rows, s.Cols, nil)
	for k, v := range s.Values {
		m.Set(s.RowIdx[k], s.ColIdx[k], v)
	}
	return m
}

// SparseMatrix evaluates the function into coordinate form. Dense functions
// keep the entries whose value is nonzero.
func (f *Func) SparseMatrix(a Args) (*Sparse, error) {
	vals, err := f.Eval(a)
	if err != nil {
		return nil, err
	}
	s := &Sparse{Rows: f.Rows, Cols: f.Cols}
	if f.Sparse {
		for k, idx := range f.Pattern {
			s.RowIdx = append(s.RowIdx, idx.Row)
			s.ColIdx = append(s.ColIdx, idx.Col)
			s.Values = append(s.Values, vals[k])
		}
		return s, nil
	}
	for k, v := range vals {
		if v != 0 {
			s.RowIdx = append(s.RowIdx, k/f.Cols)
			s.ColIdx = append(s.ColIdx, k%f.Cols)
			s.Values = append(s.Values, v)
		}
	}
	return s, nil
}

// Source returns the gofmt'ed Go source of the function.
func (f *Func) Source() string { return f.source }

// Native reports whether Eval is available.
func (f *Func) Native() bool { return f.native }

// Outputs returns the expressions the function computes, after observed
// substitution.
func (f *Func) Outputs() []symbolic.Expr { return slices.Clone(f.outputs) }
