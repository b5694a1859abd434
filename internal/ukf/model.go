package ukf

import "gonum.org/v1/gonum/mat"

// Model is the dynamical system the filter estimates.
//
// Both functions are evaluated once per sigma point, so for one time step they
// are called repeatedly with the same times and inputs. With
// useInternalState=false an implementation must not let one call affect the
// next.
type Model interface {
	// Transition maps the state at tPrev to the state at tNow.
	Transition(x, uPrev, uNow mat.Vector, tPrev, tNow float64, useInternalState bool) (*mat.VecDense, error)
	// Output maps a state to the measured outputs at time t.
	Output(x, u mat.Vector, t float64, useInternalState bool) (*mat.VecDense, error)
}

// TransitionFunc and OutputFunc let plain functions satisfy Model.
type (
	TransitionFunc func(x, uPrev, uNow mat.Vector, tPrev, tNow float64) (*mat.VecDense, error)
	OutputFunc     func(x, u mat.Vector, t float64) (*mat.VecDense, error)
)

// ModelFuncs bundles a TransitionFunc and an OutputFunc into a stateless Model.
type ModelFuncs struct {
	F TransitionFunc
	G OutputFunc
}

// Transition calls F; the internal-state flag is ignored.
func (m ModelFuncs) Transition(x, uPrev, uNow mat.Vector, tPrev, tNow float64, _ bool) (*mat.VecDense, error) {
	return m.F(x, uPrev, uNow, tPrev, tNow)
}

// Output calls G; the internal-state flag is ignored.
func (m ModelFuncs) Output(x, u mat.Vector, t float64, _ bool) (*mat.VecDense, error) {
	return m.G(x, u, t)
}
