package system

import (
	"errors"
	"fmt"
)

// Domain errors for system construction and derivation.
var (
	// ErrInvalidShape indicates a derived artifact requested on a system of the wrong shape.
	ErrInvalidShape = errors.New("system: invalid shape")

	// ErrNameCollision indicates two distinct entities sharing one qualified name.
	ErrNameCollision = errors.New("system: name collision")

	// ErrStructureNotInitialized indicates a structural accessor used before the structural pass ran.
	ErrStructureNotInitialized = errors.New("system: structural information not initialized")

	// ErrStructureInitialized indicates a second write to the structural slot.
	ErrStructureInitialized = errors.New("system: structural information already initialized")

	// ErrUnknownSymbol indicates a name lookup that matched nothing.
	ErrUnknownSymbol = errors.New("system: unknown symbol")

	// ErrNoIndependentVariable indicates a time derivative requested on a system without one.
	ErrNoIndependentVariable = errors.New("system: no independent variable")

	// ErrSingularPivot indicates a structurally zero pivot during factorization.
	ErrSingularPivot = errors.New("system: zero pivot in factorization")

	// ErrEmptyName indicates a system constructed without a name.
	ErrEmptyName = errors.New("system: empty name")
)

// InvalidShapeError reports the shape a derivation needed and the shape it got.
type InvalidShapeError struct {
	System    string
	Op        string
	Want      string
	Equations int
	Unknowns  int
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("system %q: %s requires %s (%d equations, %d unknowns)",
		e.System, e.Op, e.Want, e.Equations, e.Unknowns)
}

func (e *InvalidShapeError) Unwrap() error { return ErrInvalidShape }

type NameCollisionError struct {
	System string
	Name   string
	Reason string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("system %q: name collision on %q: %s", e.System, e.Name, e.Reason)
}

func (e *NameCollisionError) Unwrap() error { return ErrNameCollision }

type StructureNotInitializedError struct {
	System string
}

func (e *StructureNotInitializedError) Error() string {
	return fmt.Sprintf("system %q: structural information not initialized", e.System)
}

func (e *StructureNotInitializedError) Unwrap() error { return ErrStructureNotInitialized }

type UnknownSymbolError struct {
	System string
	Name   string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("system %q: no subsystem, unknown, parameter or observed output named %q", e.System, e.Name)
}

func (e *UnknownSymbolError) Unwrap() error { return ErrUnknownSymbol }
