package dynamo

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

type decay struct{}

func (decay) Derive(x State, p Params, t float64) (State, error) {
	return State{-p[0] * x[0]}, nil
}

func (decay) StateDim() int { return 1 }
func (decay) ParamDim() int { return 1 }

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		hits := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Errorf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestSample(t *testing.T) {
	out, err := Sample(context.Background(), decay{}, 50, State{2}, Params{0}, 0, func(i int, x State, p Params) {
		p[0] = float64(i)
	})
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	for i, dx := range out {
		if want := -2 * float64(i); dx[0] != want {
			t.Errorf("point %d: expected %f, got %f", i, want, dx[0])
		}
	}
}

func TestSampleDimensionMismatch(t *testing.T) {
	_, err := Sample(context.Background(), decay{}, 1, State{1, 2}, Params{1}, 0, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	var de *DimensionError
	if !errors.As(err, &de) || de.Want != 1 || de.Got != 2 {
		t.Errorf("unexpected dimension error %v", err)
	}
}

func TestSampleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sample(ctx, decay{}, 3, State{1}, Params{1}, 0, nil)
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

func TestStateIsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"finite", State{1, 2}, true},
		{"empty", State{}, true},
		{"nan", State{0, math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
