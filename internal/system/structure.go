package system

import (
	"fmt"

	"github.com/san-kum/dynsym/internal/symbolic"
)

// StructuralInfo records which unknowns each flattened equation involves.
type StructuralInfo struct {
	// Incidence[i] lists the indices into Unknowns() appearing in equation i.
	Incidence [][]int
	// Differential[i] is the index of the unknown x for an equation D(x) ~ f,
	// -1 for algebraic equations.
	Differential []int
}

// AnalyzeIncidence builds the equation/unknown incidence graph of s.
func AnalyzeIncidence(s *System) *StructuralInfo {
	unknowns := s.Unknowns()
	index := make(map[symbolic.SymbolID]int, len(unknowns))
	for i, u := range unknowns {
		index[u.ID()] = i
	}
	eqs := s.Equations()
	info := &StructuralInfo{
		Incidence:    make([][]int, len(eqs)),
		Differential: make([]int, len(eqs)),
	}
	for i, eq := range eqs {
		info.Differential[i] = -1
		if x, ok := eq.Differentiated(); ok {
			if j, ok := index[x.ID()]; ok {
				info.Differential[i] = j
			}
		}
		row := []int{}
		seen := map[int]bool{}
		for _, side := range []symbolic.Expr{eq.LHS, eq.RHS} {
			for _, sym := range symbolic.Symbols(side) {
				if j, ok := index[sym.ID()]; ok && !seen[j] {
					seen[j] = true
					row = append(row, j)
				}
			}
		}
		info.Incidence[i] = row
	}
	return info
}

// SetStructure stores the result of a structural pass. The slot is written
// once; later writes fail with ErrStructureInitialized.
func (s *System) SetStructure(info *StructuralInfo) error {
	if info == nil {
		return fmt.Errorf("system %q: nil structural information", s.name)
	}
	n := len(s.mustView().eqs)
	if len(info.Incidence) != n || len(info.Differential) != n {
		return &InvalidShapeError{
			System:    s.name,
			Op:        "structural information",
			Want:      "one incidence row per equation",
			Equations: n,
			Unknowns:  len(s.mustView().unknowns),
		}
	}
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	if s.cache.structure != nil {
		return ErrStructureInitialized
	}
	s.cache.structure = info
	return nil
}

func (s *System) Structure() (*StructuralInfo, error) {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	if s.cache.structure == nil {
		return nil, &StructureNotInitializedError{System: s.name}
	}
	return s.cache.structure, nil
}

// Incidence returns the unknown indices of equation eq.
func (s *System) Incidence(eq int) ([]int, error) {
	info, err := s.Structure()
	if err != nil {
		return nil, err
	}
	if eq < 0 || eq >= len(info.Incidence) {
		return nil, fmt.Errorf("system %q: equation index %d out of range [0, %d)", s.name, eq, len(info.Incidence))
	}
	return info.Incidence[eq], nil
}
