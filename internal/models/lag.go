package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// FirstOrderLag is dx/dt = (K·u − x)/τ with u held at uPrev over the step,
// observed directly. The transition uses the exact zero-order-hold solution.
type FirstOrderLag struct {
	Gain float64
	Tau  float64
}

func (l *FirstOrderLag) Transition(x, uPrev, _ mat.Vector, tPrev, tNow float64, _ bool) (*mat.VecDense, error) {
	u := 0.0
	if uPrev != nil && uPrev.Len() > 0 {
		u = uPrev.AtVec(0)
	}
	target := l.Gain * u
	decay := math.Exp(-(tNow - tPrev) / l.Tau)
	return mat.NewVecDense(1, []float64{target + (x.AtVec(0)-target)*decay}), nil
}

func (l *FirstOrderLag) Output(x, _ mat.Vector, _ float64, _ bool) (*mat.VecDense, error) {
	return mat.NewVecDense(1, []float64{x.AtVec(0)}), nil
}
