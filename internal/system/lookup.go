package system

import (
	"github.com/san-kum/dynsym/internal/symbolic"
)

type ResolvedKind uint8

const (
	NotFound ResolvedKind = iota
	ResolvedChild
	ResolvedUnknown
	ResolvedParameter
	ResolvedObserved
)

func (k ResolvedKind) String() string {
	switch k {
	case ResolvedChild:
		return "subsystem"
	case ResolvedUnknown:
		return "unknown"
	case ResolvedParameter:
		return "parameter"
	case ResolvedObserved:
		return "observed"
	}
	return "not found"
}

// Resolved is the result of a field-style name lookup on one node.
type Resolved struct {
	Kind     ResolvedKind
	Child    *System
	Symbol   symbolic.Symbol
	Equation symbolic.Equation
}

// ResolveName looks name up among the node's own entries in priority order:
// children, unknowns, parameters, observed outputs. Symbols are returned
// unqualified.
func (s *System) ResolveName(name string) Resolved {
	for _, c := range s.children {
		if c.name == name {
			return Resolved{Kind: ResolvedChild, Child: c}
		}
	}
	for _, u := range s.unknowns {
		if u.Name == name {
			return Resolved{Kind: ResolvedUnknown, Symbol: u}
		}
	}
	for _, p := range s.params {
		if p.Name == name {
			return Resolved{Kind: ResolvedParameter, Symbol: p}
		}
	}
	for _, eq := range s.observed {
		if l, ok := eq.LHS.(*symbolic.Leaf); ok && l.Sym.Name == name {
			return Resolved{Kind: ResolvedObserved, Symbol: l.Sym, Equation: eq}
		}
	}
	return Resolved{}
}

// Lookup follows path through nested subsystems and returns the final symbol
// qualified relative to s, so Lookup("spring", "k") yields spring₊k.
func (s *System) Lookup(path ...string) (symbolic.Symbol, error) {
	if len(path) == 0 {
		return symbolic.Symbol{}, &UnknownSymbolError{System: s.name}
	}
	cur := s
	var prefixes []string
	for i, name := range path {
		r := cur.ResolveName(name)
		last := i == len(path)-1
		switch {
		case r.Kind == ResolvedChild && !last:
			prefixes = append(prefixes, r.Child.name)
			cur = r.Child
		case r.Kind != NotFound && r.Kind != ResolvedChild && last:
			sym := r.Symbol
			for j := len(prefixes) - 1; j >= 0; j-- {
				sym = Namespace(prefixes[j], sym)
			}
			return sym, nil
		default:
			return symbolic.Symbol{}, &UnknownSymbolError{System: cur.name, Name: name}
		}
	}
	return symbolic.Symbol{}, &UnknownSymbolError{System: s.name}
}
