// Package optim minimizes compiled scalar objectives.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrLineSearch = errors.New("optim: line search failed")

// Problem is a twice differentiable objective of the unknowns.
type Problem struct {
	Loss     func(x []float64) (float64, error)
	Gradient func(x []float64) ([]float64, error)
	Hessian  func(x []float64) (*mat.Dense, error)
}

type Settings struct {
	GradTol float64
	MaxIter int
	// Armijo sufficient decrease constant.
	Armijo float64
}

func DefaultSettings() Settings {
	return Settings{GradTol: 1e-8, MaxIter: 200, Armijo: 1e-4}
}

type Result struct {
	X          []float64
	Value      float64
	GradNorm   float64
	Iterations int
	Converged  bool
}

// Newton minimizes prob from x0 with a damped Newton method. Where the
// Hessian is singular or not a descent direction the step falls back to
// steepest descent.
func Newton(ctx context.Context, prob Problem, x0 []float64, s Settings) (*Result, error) {
	x := slices.Clone(x0)
	f, err := prob.Loss(x)
	if err != nil {
		return nil, err
	}
	res := &Result{X: x, Value: f}

	trial := make([]float64, len(x))
	for res.Iterations = 0; res.Iterations < s.MaxIter; res.Iterations++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		g, err := prob.Gradient(x)
		if err != nil {
			return res, err
		}
		res.GradNorm = floats.Norm(g, 2)
		if res.GradNorm < s.GradTol {
			res.Converged = true
			break
		}

		dir := direction(prob, x, g)
		slope := floats.Dot(g, dir)

		step := 1.0
		for {
			floats.AddScaledTo(trial, x, step, dir)
			ft, err := prob.Loss(trial)
			if err == nil && ft <= f+s.Armijo*step*slope {
				f = ft
				break
			}
			step *= 0.5
			if step < 1e-16 {
				return res, fmt.Errorf("%w at iteration %d", ErrLineSearch, res.Iterations)
			}
		}
		copy(x, trial)
		res.Value = f
		slog.Debug("newton step", "iter", res.Iterations, "loss", f, "grad_norm", res.GradNorm, "step", step)
	}
	return res, nil
}

func direction(prob Problem, x, g []float64) []float64 {
	n := len(g)
	steepest := make([]float64, n)
	floats.ScaleTo(steepest, -1, g)
	if prob.Hessian == nil {
		return steepest
	}
	h, err := prob.Hessian(x)
	if err != nil {
		return steepest
	}
	var d mat.VecDense
	if err := d.SolveVec(h, mat.NewVecDense(n, slices.Clone(steepest))); err != nil {
		return steepest
	}
	dir := slices.Clone(d.RawVector().Data)
	if floats.Dot(g, dir) >= 0 || floats.HasNaN(dir) {
		return steepest
	}
	return dir
}
