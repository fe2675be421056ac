package integrators

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/dynsym/internal/dynamo"
)

type Config struct {
	Dt       float64
	Duration float64
	T0       float64
	// Adaptive lets an AdaptiveIntegrator choose the step size within
	// [MinDt, MaxDt].
	Adaptive  bool
	Tolerance float64
	MinDt     float64
	MaxDt     float64
}

type Result struct {
	Times      []float64
	States     []dynamo.State
	StepsTaken int
}

// StepError reports a step that failed or left the state invalid.
type StepError struct {
	Step    int
	Time    float64
	Message string
	Wrapped error
}

func (e *StepError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("step %d at t=%.4f: %v", e.Step, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("step %d at t=%.4f: %s", e.Step, e.Time, e.Message)
}

func (e *StepError) Unwrap() error { return e.Wrapped }

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	return nil
}

// Run integrates sys from x0 over cfg.Duration. The partial trajectory is
// returned along with any error.
func Run(ctx context.Context, integ Integrator, sys dynamo.System, x0 dynamo.State, p dynamo.Params, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDim("state", x0, sys.StateDim()); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDim("params", p, sys.ParamDim()); err != nil {
		return nil, err
	}
	if NeedsW(integ) {
		if _, ok := sys.(Linearized); !ok {
			return nil, ErrNotLinearized
		}
	}

	adaptive, canAdapt := integ.(AdaptiveIntegrator)
	if cfg.Adaptive && !canAdapt {
		return nil, fmt.Errorf("%w: integrator does not support adaptive stepping", ErrInvalidConfig)
	}
	maxDt := cfg.MaxDt
	if maxDt <= 0 {
		maxDt = cfg.Duration
	}

	steps := int(math.Ceil(cfg.Duration / cfg.Dt))
	result := &Result{
		States: make([]dynamo.State, 0, steps+1),
		Times:  make([]float64, 0, steps+1),
	}

	x := x0.Clone()
	t := cfg.T0
	end := cfg.T0 + cfg.Duration
	dt := cfg.Dt
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; end-t > 1e-9*dt; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		// the last step lands on end
		h := dt
		if end-t-h < 1e-9*dt {
			h = end - t
		}
		var (
			newX dynamo.State
			err  error
		)
		if cfg.Adaptive {
			var next float64
			newX, next, err = adaptive.StepAdaptive(sys, x, p, t, h, cfg.Tolerance)
			dt = math.Max(cfg.MinDt, math.Min(next, maxDt))
			if dt <= 0 {
				dt = h
			}
		} else {
			newX, err = integ.Step(sys, x, p, t, h)
		}
		if err != nil {
			return result, &StepError{Step: i, Time: t, Wrapped: err}
		}
		if !newX.IsValid() {
			return result, &StepError{Step: i, Time: t, Message: "invalid state (NaN/Inf)"}
		}

		x = newX
		t += h
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	slog.Debug("integrated", "steps", result.StepsTaken, "t_end", t)
	return result, nil
}
