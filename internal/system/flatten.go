package system

import (
	"maps"
	"slices"

	"github.com/san-kum/dynsym/internal/symbolic"
)

// view is the flattened form of a subtree: the node's own entries first,
// then each child's in attachment order, qualified by the child's name.
type view struct {
	eqs      []symbolic.Equation
	unknowns []symbolic.Symbol
	params   []symbolic.Symbol
	observed []symbolic.Equation
	u0       symbolic.Bindings
	p        symbolic.Bindings
	loss     symbolic.Expr
}

func (s *System) view() (*view, error) {
	s.flatOnce.Do(func() { s.flat, s.flatErr = s.flatten() })
	return s.flat, s.flatErr
}

func (s *System) mustView() *view {
	v, err := s.view()
	if err != nil {
		// New refuses to return a system whose view fails.
		panic(err)
	}
	return v
}

func (s *System) flatten() (*view, error) {
	v := &view{
		eqs:      slices.Clone(s.eqs),
		unknowns: slices.Clone(s.unknowns),
		params:   slices.Clone(s.params),
		observed: slices.Clone(s.observed),
		u0:       s.u0.Clone(),
		p:        s.p.Clone(),
		loss:     s.loss,
	}
	var losses []symbolic.Expr
	if s.loss != nil {
		losses = append(losses, s.loss)
	}

	origin := map[string]string{}
	for _, c := range s.children {
		cv, err := c.view()
		if err != nil {
			return nil, err
		}
		prefix := c.name
		if err := s.claim(origin, prefix, cv); err != nil {
			return nil, err
		}
		for _, eq := range cv.eqs {
			v.eqs = append(v.eqs, NamespaceEquation(prefix, eq))
		}
		for _, u := range cv.unknowns {
			v.unknowns = append(v.unknowns, Namespace(prefix, u))
		}
		for _, p := range cv.params {
			v.params = append(v.params, Namespace(prefix, p))
		}
		for _, eq := range cv.observed {
			v.observed = append(v.observed, NamespaceEquation(prefix, eq))
		}
		mergeDefaults(v.u0, cv.u0, prefix)
		mergeDefaults(v.p, cv.p, prefix)
		if cv.loss != nil {
			losses = append(losses, NamespaceExpr(prefix, cv.loss))
		}
	}
	switch len(losses) {
	case 0:
	case 1:
		v.loss = losses[0]
	default:
		v.loss = symbolic.Add(losses...)
	}

	v.unknowns = uniqueSymbols(v.unknowns)
	v.params = uniqueSymbols(v.params)
	v.observed = uniqueEquations(v.observed)

	if err := s.checkCollisions(v); err != nil {
		return nil, err
	}
	return v, nil
}

// mergeDefaults copies the child's defaults under the child's prefix. Keys
// already present were set closer to the root and take precedence.
func mergeDefaults(dst, src symbolic.Bindings, prefix string) {
	for _, id := range slices.SortedFunc(maps.Keys(src), compareID) {
		key := Namespace(prefix, id.Symbol()).ID()
		if _, ok := dst[key]; ok {
			continue
		}
		dst[key] = NamespaceExpr(prefix, src[id])
	}
}

func compareID(a, b symbolic.SymbolID) int {
	if a.Name != b.Name {
		if a.Name < b.Name {
			return -1
		}
		return 1
	}
	return int(a.Kind) - int(b.Kind)
}

// claim records the child each qualified name comes from. Two children whose
// names qualify to the same string, such as a child "a" owning b₊x and a child
// "a₊b" owning x, collide.
func (s *System) claim(origin map[string]string, prefix string, cv *view) error {
	names := make([]string, 0, len(cv.unknowns)+len(cv.params)+len(cv.observed))
	for _, group := range [][]symbolic.Symbol{cv.unknowns, cv.params} {
		for _, sym := range group {
			names = append(names, sym.Name)
		}
	}
	for _, eq := range cv.observed {
		if l, ok := eq.LHS.(*symbolic.Leaf); ok {
			names = append(names, l.Sym.Name)
		}
	}
	for _, name := range names {
		q := prefix + Separator + name
		if other, ok := origin[q]; ok && other != prefix {
			return &NameCollisionError{
				System: s.name,
				Name:   q,
				Reason: "defined by both " + other + " and " + prefix,
			}
		}
		origin[q] = prefix
	}
	return nil
}

// checkCollisions rejects a flattened view in which one qualified name
// denotes symbols of different kinds or uses the reserved step-size name.
func (s *System) checkCollisions(v *view) error {
	kinds := map[string]symbolic.SymbolKind{}
	if iv, ok := s.IndependentVariable(); ok {
		if iv.Name == Gamma.Name {
			return reserved(s.name)
		}
		kinds[iv.Name] = iv.Kind
	}
	for _, eq := range v.observed {
		if l, ok := eq.LHS.(*symbolic.Leaf); ok && l.Sym.Name == Gamma.Name {
			return reserved(s.name)
		}
	}
	for _, group := range [][]symbolic.Symbol{v.unknowns, v.params} {
		for _, sym := range group {
			if sym.Name == Gamma.Name {
				return reserved(s.name)
			}
			if k, ok := kinds[sym.Name]; ok && k != sym.Kind {
				return &NameCollisionError{
					System: s.name,
					Name:   sym.Name,
					Reason: "used as both " + k.String() + " and " + sym.Kind.String(),
				}
			}
			kinds[sym.Name] = sym.Kind
		}
	}
	return nil
}

func reserved(system string) error {
	return &NameCollisionError{System: system, Name: Gamma.Name, Reason: "reserved for the step size of W"}
}

func uniqueSymbols(syms []symbolic.Symbol) []symbolic.Symbol {
	seen := make(map[symbolic.SymbolID]bool, len(syms))
	out := syms[:0]
	for _, s := range syms {
		if seen[s.ID()] {
			continue
		}
		seen[s.ID()] = true
		out = append(out, s)
	}
	return out
}

func uniqueEquations(eqs []symbolic.Equation) []symbolic.Equation {
	out := eqs[:0]
	for _, eq := range eqs {
		dup := false
		for _, o := range out {
			if o.Equal(eq) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, eq)
		}
	}
	return out
}

// Namespace qualifies sym with prefix. The independent variable is shared by
// the whole tree and is returned unchanged.
func Namespace(prefix string, sym symbolic.Symbol) symbolic.Symbol {
	if sym.Kind == symbolic.KindIndependent {
		return sym
	}
	return sym.Rename(prefix + Separator + sym.Name)
}

// NamespaceExpr qualifies every leaf of e except the independent variable.
func NamespaceExpr(prefix string, e symbolic.Expr) symbolic.Expr {
	return symbolic.Rewrite(e, func(sym symbolic.Symbol) symbolic.Expr {
		if sym.Kind == symbolic.KindIndependent {
			return nil
		}
		return Namespace(prefix, sym).Expr()
	})
}

func NamespaceEquation(prefix string, eq symbolic.Equation) symbolic.Equation {
	return eq.Map(func(e symbolic.Expr) symbolic.Expr { return NamespaceExpr(prefix, e) })
}

// Equations returns the flattened equations.
func (s *System) Equations() []symbolic.Equation { return slices.Clone(s.mustView().eqs) }

// Unknowns returns the flattened unknowns, duplicates removed.
func (s *System) Unknowns() []symbolic.Symbol { return slices.Clone(s.mustView().unknowns) }

func (s *System) Parameters() []symbolic.Symbol { return slices.Clone(s.mustView().params) }

func (s *System) Observed() []symbolic.Equation { return slices.Clone(s.mustView().observed) }

// DefaultU0 returns the flattened initial-condition defaults.
func (s *System) DefaultU0() symbolic.Bindings { return s.mustView().u0.Clone() }

// DefaultP returns the flattened parameter defaults.
func (s *System) DefaultP() symbolic.Bindings { return s.mustView().p.Clone() }

// Defaults merges DefaultU0 and DefaultP.
func (s *System) Defaults() symbolic.Bindings {
	v := s.mustView()
	out := v.u0.Clone()
	maps.Copy(out, v.p)
	return out
}

// Loss returns the flattened scalar objective: the node's own loss plus the
// qualified losses of its children.
func (s *System) Loss() (symbolic.Expr, bool) {
	l := s.mustView().loss
	return l, l != nil
}

// Find looks up a flattened unknown, parameter or observed output by its
// qualified name.
func (s *System) Find(name string) (symbolic.Symbol, bool) {
	v := s.mustView()
	for _, group := range [][]symbolic.Symbol{v.unknowns, v.params} {
		for _, sym := range group {
			if sym.Name == name {
				return sym, true
			}
		}
	}
	for _, eq := range v.observed {
		if l, ok := eq.LHS.(*symbolic.Leaf); ok && l.Sym.Name == name {
			return l.Sym, true
		}
	}
	return symbolic.Symbol{}, false
}
