package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynsym/internal/dynamo"
)

type harmonicOscillator struct{}

func (harmonicOscillator) Derive(x dynamo.State, p dynamo.Params, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}
func (harmonicOscillator) StateDim() int { return 2 }
func (harmonicOscillator) ParamDim() int { return 0 }

// decay is dx/dt = -λx with λ = p[0], solving (γ + λ)Δ = b exactly.
type decay struct{}

func (decay) Derive(x dynamo.State, p dynamo.Params, t float64) (dynamo.State, error) {
	return dynamo.State{-p[0] * x[0]}, nil
}
func (decay) StateDim() int { return 1 }
func (decay) ParamDim() int { return 1 }
func (decay) SolveW(x dynamo.State, p dynamo.Params, t, gamma float64, b []float64) ([]float64, error) {
	return []float64{b[0] / (gamma + p[0])}, nil
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		var err error
		x, err = integ.Step(harmonicOscillator{}, x, nil, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)
	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestIntegratorsAgreeOnOscillator(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"euler", 5e-2},
		{"rk4", 1e-6},
		{"rk45", 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := Get(tt.name)
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			res, err := Run(context.Background(), integ, harmonicOscillator{}, dynamo.State{1, 0}, nil,
				Config{Dt: 0.001, Duration: 1})
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if res.StepsTaken != 1000 {
				t.Errorf("expected 1000 steps, got %d", res.StepsTaken)
			}
			last := res.States[len(res.States)-1]
			if math.Abs(last[0]-math.Cos(1)) > tt.tol {
				t.Errorf("expected %f, got %f", math.Cos(1), last[0])
			}
			if math.Abs(res.Times[len(res.Times)-1]-1) > 1e-9 {
				t.Errorf("expected to end at t=1, got %f", res.Times[len(res.Times)-1])
			}
		})
	}
}

func TestImplicitEulerIsStable(t *testing.T) {
	p := dynamo.Params{1000}
	cfg := Config{Dt: 0.1, Duration: 1}

	res, err := Run(context.Background(), NewImplicitEuler(), decay{}, dynamo.State{1}, p, cfg)
	if err != nil {
		t.Fatalf("implicit run failed: %v", err)
	}
	last := res.States[len(res.States)-1][0]
	if last < 0 || last > 1e-10 {
		t.Errorf("expected decay towards 0, got %g", last)
	}

	_, err = Run(context.Background(), NewEuler(), decay{}, dynamo.State{1}, p, Config{Dt: 0.1, Duration: 100})
	var se *StepError
	if !errors.As(err, &se) {
		t.Errorf("expected explicit euler to blow up, got %v", err)
	}
}

func TestImplicitEulerNeedsW(t *testing.T) {
	_, err := Run(context.Background(), NewImplicitEuler(), harmonicOscillator{}, dynamo.State{1, 0}, nil,
		Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, ErrNotLinearized) {
		t.Errorf("expected ErrNotLinearized, got %v", err)
	}
}

func TestAdaptiveRun(t *testing.T) {
	res, err := Run(context.Background(), NewRK45(), harmonicOscillator{}, dynamo.State{1, 0}, nil,
		Config{Dt: 0.01, Duration: 2, Adaptive: true, Tolerance: 1e-8, MinDt: 1e-6, MaxDt: 0.5})
	if err != nil {
		t.Fatalf("adaptive run failed: %v", err)
	}
	last := res.States[len(res.States)-1]
	if math.Abs(last[0]-math.Cos(2)) > 1e-5 {
		t.Errorf("expected %f, got %f", math.Cos(2), last[0])
	}

	_, err = Run(context.Background(), NewRK4(), harmonicOscillator{}, dynamo.State{1, 0}, nil,
		Config{Dt: 0.01, Duration: 1, Adaptive: true, Tolerance: 1e-6})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		x0   dynamo.State
		cfg  Config
		want error
	}{
		{"zero dt", dynamo.State{1, 0}, Config{Dt: 0, Duration: 1}, ErrInvalidConfig},
		{"zero duration", dynamo.State{1, 0}, Config{Dt: 0.1}, ErrInvalidConfig},
		{"no tolerance", dynamo.State{1, 0}, Config{Dt: 0.1, Duration: 1, Adaptive: true}, ErrInvalidConfig},
		{"short state", dynamo.State{1}, Config{Dt: 0.1, Duration: 1}, dynamo.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), NewRK4(), harmonicOscillator{}, tt.x0, nil, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, NewRK4(), harmonicOscillator{}, dynamo.State{1, 0}, nil, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(res.States) != 1 {
		t.Errorf("expected only the initial state, got %d", len(res.States))
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("verlet"); !errors.Is(err, ErrUnknownIntegrator) {
		t.Errorf("expected ErrUnknownIntegrator, got %v", err)
	}
	if len(List()) != 4 {
		t.Errorf("expected 4 integrators, got %v", List())
	}
}
