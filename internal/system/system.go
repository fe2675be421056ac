package system

import (
	"slices"
	"strings"
	"sync"

	"github.com/san-kum/dynsym/internal/symbolic"
)

// Separator joins subsystem names into qualified symbol names.
const Separator = "₊"

// System is one node of a hierarchical equation system.
type System struct {
	name     string
	iv       *symbolic.Symbol
	eqs      []symbolic.Equation
	unknowns []symbolic.Symbol
	params   []symbolic.Symbol
	observed []symbolic.Equation
	u0       symbolic.Bindings
	p        symbolic.Bindings
	loss     symbolic.Expr
	children []*System

	cache *cache

	flatOnce sync.Once
	flat     *view
	flatErr  error
}

type builder struct {
	iv               *symbolic.Symbol
	unknowns         []symbolic.Symbol
	params           []symbolic.Symbol
	explicitUnknowns bool
	explicitParams   bool
	observed         []symbolic.Equation
	defaults         []symbolic.Bindings
	children         []*System
	loss             symbolic.Expr
}

// Option configures a System under construction.
type Option func(*builder)

func WithIndependentVariable(iv symbolic.Symbol) Option {
	return func(b *builder) { b.iv = &iv }
}

// WithUnknowns fixes the node's unknowns instead of inferring them from the
// equations.
func WithUnknowns(unknowns ...symbolic.Symbol) Option {
	return func(b *builder) {
		b.unknowns = slices.Clone(unknowns)
		b.explicitUnknowns = true
	}
}

// WithParameters fixes the node's parameters instead of inferring them.
func WithParameters(params ...symbolic.Symbol) Option {
	return func(b *builder) {
		b.params = slices.Clone(params)
		b.explicitParams = true
	}
}

// WithObserved attaches equations y ~ f that define outputs computed from
// unknowns rather than solved for.
func WithObserved(eqs ...symbolic.Equation) Option {
	return func(b *builder) { b.observed = append(b.observed, eqs...) }
}

// WithDefaults supplies default values. Parameter keys go to the parameter
// defaults, every other key to the initial-condition defaults.
func WithDefaults(defaults symbolic.Bindings) Option {
	return func(b *builder) { b.defaults = append(b.defaults, defaults) }
}

func WithSystems(children ...*System) Option {
	return func(b *builder) { b.children = append(b.children, children...) }
}

// WithLoss sets the scalar objective used by gradient and Hessian derivation.
func WithLoss(loss symbolic.Expr) Option {
	return func(b *builder) { b.loss = loss }
}

// New builds a system node. Unknowns, parameters and the independent variable
// are inferred from the equations unless given explicitly; symbols qualified
// with the name of a child belong to that child and are not inferred here.
func New(name string, eqs []symbolic.Equation, opts ...Option) (*System, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	s := &System{
		name:     name,
		iv:       b.iv,
		eqs:      slices.Clone(eqs),
		observed: slices.Clone(b.observed),
		u0:       symbolic.Bindings{},
		p:        symbolic.Bindings{},
		loss:     b.loss,
		children: slices.Clone(b.children),
		cache:    &cache{},
	}
	for _, d := range b.defaults {
		for id, v := range d {
			switch id.Kind {
			case symbolic.KindParameter:
				s.p[id] = v
			case symbolic.KindUnknown:
				s.u0[id] = v
			}
		}
	}

	if err := s.validateChildren(); err != nil {
		return nil, err
	}
	s.infer(&b)
	if err := s.validateNames(); err != nil {
		return nil, err
	}
	if _, err := s.view(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *System) validateChildren() error {
	names := map[string]bool{}
	ptrs := map[*System]bool{}
	for _, c := range s.children {
		if c == nil {
			return &NameCollisionError{System: s.name, Name: "", Reason: "nil subsystem"}
		}
		if ptrs[c] {
			return &NameCollisionError{System: s.name, Name: c.name, Reason: "subsystem attached twice"}
		}
		if names[c.name] {
			return &NameCollisionError{System: s.name, Name: c.name, Reason: "duplicate subsystem name"}
		}
		ptrs[c] = true
		names[c.name] = true
	}
	return nil
}

// infer fills in the unknowns, parameters and independent variable the caller
// left implicit.
func (s *System) infer(b *builder) {
	owned := map[symbolic.SymbolID]bool{}
	for _, c := range s.children {
		v := c.mustView()
		for _, u := range v.unknowns {
			owned[Namespace(c.name, u).ID()] = true
		}
		for _, p := range v.params {
			owned[Namespace(c.name, p).ID()] = true
		}
		for _, o := range v.observed {
			if l, ok := o.LHS.(*symbolic.Leaf); ok {
				owned[Namespace(c.name, l.Sym).ID()] = true
			}
		}
	}
	outputs := map[symbolic.SymbolID]bool{}
	for _, o := range s.observed {
		if l, ok := o.LHS.(*symbolic.Leaf); ok {
			outputs[l.Sym.ID()] = true
		}
	}

	var exprs []symbolic.Expr
	for _, eq := range s.eqs {
		exprs = append(exprs, eq.LHS, eq.RHS)
	}
	for _, eq := range s.observed {
		exprs = append(exprs, eq.RHS)
	}
	if s.loss != nil {
		exprs = append(exprs, s.loss)
	}

	seen := map[symbolic.SymbolID]bool{}
	for _, e := range exprs {
		for _, sym := range symbolic.Symbols(e) {
			id := sym.ID()
			if seen[id] || owned[id] {
				continue
			}
			seen[id] = true
			switch sym.Kind {
			case symbolic.KindIndependent:
				if s.iv == nil {
					iv := sym
					s.iv = &iv
				}
			case symbolic.KindParameter:
				if !b.explicitParams {
					b.params = append(b.params, sym)
				}
			case symbolic.KindUnknown:
				if !b.explicitUnknowns && !outputs[id] {
					b.unknowns = append(b.unknowns, sym)
				}
			}
		}
	}
	s.unknowns = b.unknowns
	s.params = b.params
}

// validateNames rejects children whose name shadows one of the node's own
// symbols, which would make field-style lookup ambiguous.
func (s *System) validateNames() error {
	own := map[string]bool{}
	for _, u := range s.unknowns {
		own[u.Name] = true
	}
	for _, p := range s.params {
		own[p.Name] = true
	}
	for _, o := range s.observed {
		if l, ok := o.LHS.(*symbolic.Leaf); ok {
			own[l.Sym.Name] = true
		}
	}
	for _, c := range s.children {
		if own[c.name] {
			return &NameCollisionError{System: s.name, Name: c.name, Reason: "subsystem name shadows a symbol"}
		}
	}
	return nil
}

func (s *System) Name() string { return s.name }

func (s *System) Children() []*System { return slices.Clone(s.children) }

// OwnEquations returns the node's equations without its children's.
func (s *System) OwnEquations() []symbolic.Equation { return slices.Clone(s.eqs) }

func (s *System) OwnUnknowns() []symbolic.Symbol { return slices.Clone(s.unknowns) }

func (s *System) OwnParameters() []symbolic.Symbol { return slices.Clone(s.params) }

func (s *System) OwnObserved() []symbolic.Equation { return slices.Clone(s.observed) }

// IndependentVariable returns the shared independent variable, if any node of
// the tree declares one.
func (s *System) IndependentVariable() (symbolic.Symbol, bool) {
	if s.iv != nil {
		return *s.iv, true
	}
	for _, c := range s.children {
		if iv, ok := c.IndependentVariable(); ok {
			return iv, true
		}
	}
	return symbolic.Symbol{}, false
}

// Rename returns a copy of the node under a new name with an empty artifact
// cache. Children are shared; the tree below is immutable.
func (s *System) Rename(name string) *System {
	n := s.clone()
	n.name = name
	n.cache = &cache{}
	return n
}

// WithDefault returns a copy of the node whose default for the flattened
// parameter or unknown named name is value. Parameters are matched first.
// The copy shares the derived-artifact cache since its equations are
// unchanged.
func (s *System) WithDefault(name string, value symbolic.Expr) (*System, error) {
	v := s.mustView()
	for _, p := range v.params {
		if p.Name == name {
			n := s.clone()
			n.p[p.ID()] = value
			return n, nil
		}
	}
	for _, u := range v.unknowns {
		if u.Name == name {
			n := s.clone()
			n.u0[u.ID()] = value
			return n, nil
		}
	}
	return nil, &UnknownSymbolError{System: s.name, Name: name}
}

func (s *System) clone() *System {
	return &System{
		name:     s.name,
		iv:       s.iv,
		eqs:      s.eqs,
		unknowns: s.unknowns,
		params:   s.params,
		observed: s.observed,
		u0:       s.u0.Clone(),
		p:        s.p.Clone(),
		loss:     s.loss,
		children: s.children,
		cache:    s.cache,
	}
}

func (s *System) String() string {
	var sb strings.Builder
	sb.WriteString(s.name)
	sb.WriteString(":\n")
	for _, eq := range s.Equations() {
		sb.WriteString("  ")
		sb.WriteString(eq.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
