package integrators

import (
	"math"

	"github.com/san-kum/dynsym/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one Dormand-Prince step of size dt and discards the error
// estimate.
func (r *RK45) Step(sys dynamo.System, x dynamo.State, p dynamo.Params, t, dt float64) (dynamo.State, error) {
	newX, _, err := r.StepAdaptive(sys, x, p, t, dt, 1e-6)
	return newX, err
}

// combine returns x + dt*sum(coef[j]*k[j]).
func combine(x dynamo.State, dt float64, coef []float64, k []dynamo.State) dynamo.State {
	out := make(dynamo.State, len(x))
	for i := range x {
		s := 0.0
		for j, c := range coef {
			s += c * k[j][i]
		}
		out[i] = x[i] + dt*s
	}
	return out
}

func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, p dynamo.Params, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	stages := []struct {
		a    float64
		coef []float64
	}{
		{a2, []float64{b21}},
		{a3, []float64{b31, b32}},
		{a4, []float64{b41, b42, b43}},
		{a5, []float64{b51, b52, b53, b54}},
		{1, []float64{b61, b62, b63, b64, b65}},
	}

	k1, err := sys.Derive(x, p, t)
	if err != nil {
		return nil, 0, err
	}
	k := []dynamo.State{k1}
	for _, st := range stages {
		ki, err := sys.Derive(combine(x, dt, st.coef, k), p, t+st.a*dt)
		if err != nil {
			return nil, 0, err
		}
		k = append(k, ki)
	}

	xNew := combine(x, dt, []float64{c1, 0, c3, c4, c5, c6}, k)
	k7, err := sys.Derive(xNew, p, t+dt)
	if err != nil {
		return nil, 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	switch {
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}
	return xNew, dtNew, nil
}
