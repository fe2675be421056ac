package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/dynsym/internal/system"
)

var ErrUnknownModel = errors.New("models: unknown model")

type Model struct {
	Name        string
	Description string
	Build       func() (*system.System, error)
}

type Registry struct {
	models map[string]Model
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Model)}

	r.Register(Model{"lorenz", "Lorenz attractor", NewLorenz})
	r.Register(Model{"rossler", "Rössler attractor", NewRossler})
	r.Register(Model{"duffing", "forced Duffing oscillator", NewDuffing})
	r.Register(Model{"vanderpol", "Van der Pol oscillator", NewVanDerPol})
	r.Register(Model{"pendulum", "damped pendulum with observed energy", NewPendulum})
	r.Register(Model{"spring_mass", "damped harmonic oscillator", NewSpringMass})
	r.Register(Model{"coupled", "two bodies with algebraic spring coupling", NewCoupled})
	r.Register(Model{"rosenbrock", "Rosenbrock objective", NewRosenbrock})

	return r
}

func (r *Registry) Register(m Model) {
	r.models[m.Name] = m
}

func (r *Registry) Get(name string) (*system.System, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m.Build()
}

// List returns the registered models sorted by name.
func (r *Registry) List() []Model {
	out := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
