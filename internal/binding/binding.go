// Package binding turns user-supplied symbol assignments into ordered numeric
// vectors.
//
// Values may be expressions over other bound symbols; [Resolve] substitutes
// until every entry is numeric or no further progress is possible, so a
// parameter default of 2*k follows whatever k resolves to.
package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/san-kum/dynsym/internal/symbolic"
)

// ErrMissingVariables indicates symbols with no numeric value after resolution.
var ErrMissingVariables = errors.New("binding: missing variables")

type MissingVariablesError struct {
	Missing []symbolic.Symbol
}

func (e *MissingVariablesError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = s.Name
	}
	return fmt.Sprintf("binding: no numeric value for %s", strings.Join(names, ", "))
}

func (e *MissingVariablesError) Unwrap() error { return ErrMissingVariables }

// Input is a collection of symbol assignments.
type Input interface {
	Len() int
	bind(dst symbolic.Bindings)
}

// Map assigns expressions to symbols by identity. Value type is not part of
// the key, so one symbol has at most one entry.
type Map map[symbolic.SymbolID]symbolic.Expr

func (m Map) Len() int { return len(m) }

func (m Map) Set(s symbolic.Symbol, e symbolic.Expr) { m[s.ID()] = e }

func (m Map) bind(dst symbolic.Bindings) {
	for id, e := range m {
		dst[id] = e
	}
}

type Pair struct {
	Symbol symbolic.Symbol
	Value  symbolic.Expr
}

// Pairs is an ordered assignment list. A later pair for the same symbol
// overrides an earlier one.
type Pairs []Pair

func (p Pairs) Len() int { return len(p) }

func (p Pairs) bind(dst symbolic.Bindings) {
	for _, pair := range p {
		dst[pair.Symbol.ID()] = pair.Value
	}
}

// Resolve merges varmap over defaults, resolves the values against each
// other and returns them in varlist order. When varmap is absent (nil) and
// there are no defaults it returns nil without error so the caller can defer
// binding. An empty but non-nil varmap is resolved like any other.
func Resolve(varmap Input, varlist []symbolic.Symbol, defaults symbolic.Bindings) ([]float64, error) {
	if absent(varmap) && len(defaults) == 0 {
		return nil, nil
	}

	merged := make(symbolic.Bindings, len(defaults))
	for id, e := range defaults {
		merged[id] = e
	}
	if varmap != nil {
		varmap.bind(merged)
	}
	for id, e := range merged {
		merged[id] = symbolic.Simplify(e)
	}
	rounds := fixpoint(merged)
	slog.Debug("resolved bindings", "entries", len(merged), "rounds", rounds)

	out := make([]float64, len(varlist))
	var missing []symbolic.Symbol
	for i, s := range varlist {
		e, ok := merged[s.ID()]
		if !ok {
			missing = append(missing, s)
			continue
		}
		v, ok := symbolic.Value(e)
		if !ok {
			missing = append(missing, s)
			continue
		}
		out[i] = v
	}
	if len(missing) > 0 {
		return nil, &MissingVariablesError{Missing: missing}
	}
	return out, nil
}

func absent(in Input) bool {
	switch v := in.(type) {
	case nil:
		return true
	case Map:
		return v == nil
	case Pairs:
		return v == nil
	}
	return false
}

// fixpoint substitutes b into its own values until nothing changes, at most
// len(b)+1 rounds. It returns the number of rounds run.
func fixpoint(b symbolic.Bindings) int {
	limit := len(b) + 1
	for round := 1; round <= limit; round++ {
		changed := false
		for id, e := range b {
			next := symbolic.Simplify(symbolic.Substitute(e, b))
			if !symbolic.Equal(next, e) {
				b[id] = next
				changed = true
			}
		}
		if !changed {
			return round
		}
	}
	return limit
}

// ResolvePairs is Resolve for ordered input. The result has one pair per
// entry of varlist. Nil input with no defaults is returned as is.
func ResolvePairs(pairs Pairs, varlist []symbolic.Symbol, defaults symbolic.Bindings) (Pairs, error) {
	if pairs == nil && len(defaults) == 0 {
		return nil, nil
	}
	vals, err := Resolve(pairs, varlist, defaults)
	if err != nil {
		return nil, err
	}
	out := make(Pairs, len(varlist))
	for i, s := range varlist {
		out[i] = Pair{Symbol: s, Value: symbolic.Num(vals[i])}
	}
	return out, nil
}

// Zip pairs varlist with values.
func Zip(varlist []symbolic.Symbol, values []float64) Map {
	m := make(Map, len(varlist))
	for i, s := range varlist {
		if i < len(values) {
			m.Set(s, symbolic.Num(values[i]))
		}
	}
	return m
}
