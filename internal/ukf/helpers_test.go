package ukf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// randomWalk is x' = x, y = x for any state size; outputs are the first
// nOut states.
func randomWalk(nOut int) ModelFuncs {
	return ModelFuncs{
		F: func(x, _, _ mat.Vector, _, _ float64) (*mat.VecDense, error) {
			return mat.VecDenseCopyOf(x), nil
		},
		G: func(x, _ mat.Vector, _ float64) (*mat.VecDense, error) {
			out := mat.NewVecDense(nOut, nil)
			for i := 0; i < nOut; i++ {
				out.SetVec(i, x.AtVec(i))
			}
			return out, nil
		},
	}
}

// countingModel wraps a Model and counts evaluations.
type countingModel struct {
	Model
	transitions int
	outputs     int
}

func (m *countingModel) Transition(x, uPrev, uNow mat.Vector, tPrev, tNow float64, internal bool) (*mat.VecDense, error) {
	m.transitions++
	return m.Model.Transition(x, uPrev, uNow, tPrev, tNow, internal)
}

func (m *countingModel) Output(x, u mat.Vector, t float64, internal bool) (*mat.VecDense, error) {
	m.outputs++
	return m.Model.Output(x, u, t, internal)
}

var errBoom = errors.New("boom")

// failingModel fails on every transition.
var failingModel = ModelFuncs{
	F: func(mat.Vector, mat.Vector, mat.Vector, float64, float64) (*mat.VecDense, error) {
		return nil, errBoom
	},
	G: func(x, _ mat.Vector, _ float64) (*mat.VecDense, error) {
		return mat.VecDenseCopyOf(x), nil
	},
}

func mustConfig(t *testing.T, nState, nOutputs int) *Config {
	t.Helper()
	c, err := NewConfig(nState, nOutputs)
	require.NoError(t, err)
	return c
}

func lower(n int, vals ...float64) *mat.TriDense {
	return mat.NewTriDense(n, mat.Lower, vals)
}

func scalarState(x, s, sq float64) State {
	return State{
		X:  mat.NewVecDense(1, []float64{x}),
		S:  lower(1, s),
		Sq: mat.NewDense(1, 1, []float64{sq}),
	}
}

// recordingSink keeps the last matrix seen per label.
type recordingSink map[string]*mat.Dense

func (r recordingSink) Trace(label string, m mat.Matrix) {
	r[label] = mat.DenseCopyOf(m)
}
