package system

import (
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/dynsym/internal/symbolic"
)

// slot holds one derived artifact. The first caller computes it; everyone
// else blocks on the same Once and receives the stored value and error.
type slot[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (sl *slot[T]) get(sys, artifact string, fill func() (T, error)) (T, error) {
	sl.once.Do(func() {
		start := time.Now()
		sl.val, sl.err = fill()
		slog.Debug("derived artifact",
			"system", sys,
			"artifact", artifact,
			"elapsed", time.Since(start),
			"err", sl.err,
		)
	})
	return sl.val, sl.err
}

type cache struct {
	tgrad    slot[[]symbolic.Expr]
	grad     slot[[]symbolic.Expr]
	jacobian slot[*symbolic.Matrix]
	hessian  slot[*symbolic.Matrix]
	wfact    slot[*Factorization]

	mu        sync.Mutex
	structure *StructuralInfo
}
