package symbolic

import "fmt"

type SymbolKind uint8

const (
	KindUnknown SymbolKind = iota
	KindParameter
	KindIndependent
)

func (k SymbolKind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindParameter:
		return "parameter"
	case KindIndependent:
		return "independent"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ValueType is the numeric type tag carried by a symbol. It is metadata only
// and does not take part in symbol identity.
type ValueType uint8

const (
	Real ValueType = iota
	Integer
	Boolean
)

func (v ValueType) String() string {
	switch v {
	case Real:
		return "real"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("type(%d)", uint8(v))
	}
}

// Symbol is a named leaf quantity. Symbols have no owner and are compared by
// name and kind only.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type ValueType
}

// SymbolID is the comparable identity of a symbol. Maps over symbols are
// keyed by SymbolID so that differently tagged copies of a symbol collide.
type SymbolID struct {
	Name string
	Kind SymbolKind
}

func NewSymbol(name string, kind SymbolKind, typ ValueType) Symbol {
	return Symbol{Name: name, Kind: kind, Type: typ}
}

func Var(name string) Symbol      { return Symbol{Name: name, Kind: KindUnknown} }
func Param(name string) Symbol    { return Symbol{Name: name, Kind: KindParameter} }
func IndepVar(name string) Symbol { return Symbol{Name: name, Kind: KindIndependent} }

func (s Symbol) ID() SymbolID { return SymbolID{Name: s.Name, Kind: s.Kind} }

func (s Symbol) Equal(other Symbol) bool {
	return s.Name == other.Name && s.Kind == other.Kind
}

// Rename returns a copy of s carrying a new name.
func (s Symbol) Rename(name string) Symbol {
	s.Name = name
	return s
}

func (s Symbol) Expr() Expr { return &Leaf{Sym: s} }

func (s Symbol) String() string { return s.Name }

// Symbol reconstructs a real-typed symbol from its identity.
func (id SymbolID) Symbol() Symbol { return Symbol{Name: id.Name, Kind: id.Kind} }

// Bindings maps symbols to expressions.
type Bindings map[SymbolID]Expr

func (b Bindings) Set(s Symbol, e Expr) { b[s.ID()] = e }

func (b Bindings) Get(s Symbol) (Expr, bool) {
	e, ok := b[s.ID()]
	return e, ok
}

func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
