package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pendulum is a damped pendulum with state [θ, ω] driven by a torque input:
//
//	dθ/dt = ω
//	dω/dt = -(g/L)·sin θ - c·ω + u
//
// The measured output is the horizontal bob position L·sin θ. Transition
// integrates with fixed-step RK4 holding uPrev over [tPrev, tNow].
type Pendulum struct {
	G       float64
	Length  float64
	Damping float64
	// MaxStep bounds the RK4 step size in seconds.
	MaxStep float64
}

// DefaultPendulum is a 1 m pendulum under earth gravity with light damping.
func DefaultPendulum() *Pendulum {
	return &Pendulum{G: 9.81, Length: 1, Damping: 0.1, MaxStep: 0.01}
}

func (p *Pendulum) derivative(x []float64, u float64) []float64 {
	return []float64{
		x[1],
		-(p.G/p.Length)*math.Sin(x[0]) - p.Damping*x[1] + u,
	}
}

func (p *Pendulum) Transition(x, uPrev, _ mat.Vector, tPrev, tNow float64, _ bool) (*mat.VecDense, error) {
	u := 0.0
	if uPrev != nil && uPrev.Len() > 0 {
		u = uPrev.AtVec(0)
	}
	state := []float64{x.AtVec(0), x.AtVec(1)}
	integrateRK4(state, tNow-tPrev, p.MaxStep, func(s []float64) []float64 {
		return p.derivative(s, u)
	})
	return mat.NewVecDense(2, state), nil
}

func (p *Pendulum) Output(x, _ mat.Vector, _ float64, _ bool) (*mat.VecDense, error) {
	return mat.NewVecDense(1, []float64{p.Length * math.Sin(x.AtVec(0))}), nil
}

// integrateRK4 advances state in place over dt using steps no longer than
// maxStep (maxStep <= 0 means a single step).
func integrateRK4(state []float64, dt, maxStep float64, f func([]float64) []float64) {
	if dt <= 0 {
		return
	}
	steps := 1
	if maxStep > 0 {
		steps = int(math.Ceil(dt / maxStep))
	}
	h := dt / float64(steps)
	n := len(state)
	tmp := make([]float64, n)
	for s := 0; s < steps; s++ {
		k1 := f(state)
		for i := range tmp {
			tmp[i] = state[i] + 0.5*h*k1[i]
		}
		k2 := f(tmp)
		for i := range tmp {
			tmp[i] = state[i] + 0.5*h*k2[i]
		}
		k3 := f(tmp)
		for i := range tmp {
			tmp[i] = state[i] + h*k3[i]
		}
		k4 := f(tmp)
		for i := range state {
			state[i] += h / 6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
		}
	}
}
