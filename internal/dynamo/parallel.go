package dynamo

import (
	"context"
	"runtime"
	"sync"
)

// ParallelFor executes a function in parallel over a range [0, n)
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// Sample evaluates sys at n points. Each point starts from copies of x0 and
// p0 which prepare may modify before the evaluation. Results are returned in
// point order; the first failing point aborts the result.
func Sample(ctx context.Context, sys System, n int, x0 State, p0 Params, t float64,
	prepare func(i int, x State, p Params)) ([]State, error) {
	if err := CheckDim("state", x0, sys.StateDim()); err != nil {
		return nil, err
	}
	if err := CheckDim("params", p0, sys.ParamDim()); err != nil {
		return nil, err
	}

	out := make([]State, n)
	errs := make([]error, n)
	ParallelFor(n, 16, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				errs[i] = ErrContextCanceled
				continue
			}
			x, p := x0.Clone(), p0.Clone()
			if prepare != nil {
				prepare(i, x, p)
			}
			dx, err := sys.Derive(x, p, t)
			if err != nil {
				errs[i] = err
				continue
			}
			out[i] = dx
		}
	})

	for i, err := range errs {
		if err != nil {
			return nil, &SampleError{Index: i, Wrapped: err}
		}
	}
	return out, nil
}
