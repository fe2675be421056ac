package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/dynsym/internal/symbolic"
)

var (
	// ErrUnboundSymbol indicates a leaf that is neither an argument nor an
	// observed output.
	ErrUnboundSymbol = errors.New("codegen: unbound symbol")

	// ErrNotNative indicates numeric evaluation of a function built for
	// source output only.
	ErrNotNative = errors.New("codegen: function was not compiled for native evaluation")

	// ErrNotCompilable indicates an operation with no numeric form, such as D.
	ErrNotCompilable = errors.New("codegen: expression cannot be compiled")

	// ErrShape indicates an expression list that does not fill the requested shape.
	ErrShape = errors.New("codegen: expression count does not match shape")

	// ErrObservedCycle indicates observed equations that depend on each other.
	ErrObservedCycle = errors.New("codegen: cyclic observed equations")

	ErrNotVector = errors.New("codegen: function is not a dense vector function")
)

// UnboundSymbolError lists every symbol the generator could not bind.
type UnboundSymbolError struct {
	Symbols []symbolic.Symbol
}

func (e *UnboundSymbolError) Error() string {
	names := make([]string, len(e.Symbols))
	for i, s := range e.Symbols {
		names[i] = fmt.Sprintf("%s (%s)", s.Name, s.Kind)
	}
	return fmt.Sprintf("codegen: unbound symbols: %s", strings.Join(names, ", "))
}

func (e *UnboundSymbolError) Unwrap() error { return ErrUnboundSymbol }
