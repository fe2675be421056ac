package symbolic

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Equal reports structural equality: same node kind, same symbol identity or
// constant value, same operator and pairwise equal operands. The result type
// tag of an operation is not compared.
func Equal(a, b Expr) bool {
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *Leaf:
		y, ok := b.(*Leaf)
		return ok && x.Sym.Equal(y.Sym)
	case *Const:
		y, ok := b.(*Const)
		return ok && x.Value == y.Value
	case *Op:
		y, ok := b.(*Op)
		if !ok || x.Operator != y.Operator || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Hash returns a content hash consistent with Equal.
func Hash(e Expr) uint64 {
	d := xxhash.New()
	writeHash(d, e)
	return d.Sum64()
}

func writeHash(d *xxhash.Digest, e Expr) {
	var buf [9]byte
	switch x := e.(type) {
	case *Leaf:
		buf[0] = 'L'
		buf[1] = byte(x.Sym.Kind)
		d.Write(buf[:2])
		d.WriteString(x.Sym.Name)
		d.Write(buf[8:9])
	case *Const:
		v := x.Value
		if v == 0 {
			v = 0 // fold -0
		}
		buf[0] = 'C'
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v))
		d.Write(buf[:])
	case *Op:
		buf[0] = 'O'
		buf[1] = byte(x.Operator)
		binary.LittleEndian.PutUint32(buf[2:6], uint32(len(x.Args)))
		d.Write(buf[:6])
		for _, a := range x.Args {
			writeHash(d, a)
		}
	}
}

// Unique removes structural duplicates, keeping first occurrences in order.
func Unique(exprs []Expr) []Expr {
	seen := make(map[uint64][]Expr, len(exprs))
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		h := Hash(e)
		dup := false
		for _, prev := range seen[h] {
			if Equal(prev, e) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], e)
		out = append(out, e)
	}
	return out
}
