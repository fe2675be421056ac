package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for numeric evaluation.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the evaluation was interrupted.
	ErrContextCanceled = errors.New("dynamo: evaluation canceled by context")

	// ErrDimensionMismatch indicates an input vector whose length does not
	// match the system.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between input and system")
)

// DimensionError reports which input had the wrong length.
type DimensionError struct {
	Input string
	Want  int
	Got   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s has length %d, want %d", ErrDimensionMismatch, e.Input, e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckDim returns a DimensionError when len(v) != want.
func CheckDim(input string, v []float64, want int) error {
	if len(v) != want {
		return &DimensionError{Input: input, Want: want, Got: len(v)}
	}
	return nil
}

// SampleError wraps an error with the index of the sample that produced it.
type SampleError struct {
	Index   int
	Wrapped error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Index, e.Wrapped)
}

func (e *SampleError) Unwrap() error {
	return e.Wrapped
}
