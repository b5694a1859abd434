package ukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Series is a sequence of measured samples. Inputs may be nil for models
// without inputs; otherwise it has one entry per time.
type Series struct {
	Times        []float64
	Inputs       []mat.Vector
	Measurements []mat.Vector
}

// Len is the number of samples.
func (s Series) Len() int { return len(s.Times) }

func (s Series) validate() error {
	if len(s.Measurements) != len(s.Times) {
		return fmt.Errorf("%w: %d measurements for %d times", ErrDimension, len(s.Measurements), len(s.Times))
	}
	if s.Inputs != nil && len(s.Inputs) != len(s.Times) {
		return fmt.Errorf("%w: %d inputs for %d times", ErrDimension, len(s.Inputs), len(s.Times))
	}
	for i := 1; i < len(s.Times); i++ {
		if !(s.Times[i] > s.Times[i-1]) {
			return fmt.Errorf("%w: times must increase strictly (index %d: %g after %g)", ErrDimension, i, s.Times[i], s.Times[i-1])
		}
	}
	return nil
}

func inputAt(inputs []mat.Vector, i int) mat.Vector {
	if inputs == nil {
		return nil
	}
	return inputs[i]
}

// Initial is the prior the filter starts from.
type Initial struct {
	State State
	Time  float64
	Input mat.Vector
}

// Trajectory is a filtered state history. Entry 0 is the prior; entry i > 0 is
// the corrected state after sample i-1.
type Trajectory struct {
	Times  []float64
	Inputs []mat.Vector
	States []State
	// Steps holds the per-sample step diagnostics (len(States)-1 entries).
	Steps []*StepResult
}

// Len is the number of states, prior included.
func (t *Trajectory) Len() int { return len(t.States) }

// Means returns the state mean of every entry.
func (t *Trajectory) Means() []*mat.VecDense {
	out := make([]*mat.VecDense, len(t.States))
	for i, s := range t.States {
		out[i] = s.X
	}
	return out
}

// SqrtCovs returns the square-root covariance of every entry.
func (t *Trajectory) SqrtCovs() []*mat.TriDense {
	out := make([]*mat.TriDense, len(t.States))
	for i, s := range t.States {
		out[i] = s.S
	}
	return out
}

// Run filters the whole series starting from init, threading the state from
// one Step to the next.
func (c *Config) Run(m Model, series Series, init Initial, sr mat.Matrix, opts StepOptions) (*Trajectory, error) {
	if err := series.validate(); err != nil {
		return nil, err
	}
	if series.Len() > 0 && !(series.Times[0] > init.Time) {
		return nil, fmt.Errorf("%w: first sample at %g is not after the prior at %g", ErrDimension, series.Times[0], init.Time)
	}

	n := series.Len()
	traj := &Trajectory{
		Times:  make([]float64, 0, n+1),
		Inputs: make([]mat.Vector, 0, n+1),
		States: make([]State, 0, n+1),
		Steps:  make([]*StepResult, 0, n),
	}
	traj.Times = append(traj.Times, init.Time)
	traj.Inputs = append(traj.Inputs, init.Input)
	traj.States = append(traj.States, init.State.Clone())

	state := init.State.Clone()
	tPrev, uPrev := init.Time, init.Input
	for i := 0; i < n; i++ {
		uNow := inputAt(series.Inputs, i)
		in := Inputs{UPrev: uPrev, UNow: uNow, TPrev: tPrev, TNow: series.Times[i]}
		res, err := c.Step(m, series.Measurements[i], state, sr, in, opts)
		if err != nil {
			return nil, fmt.Errorf("step %d (t=%g): %w", i, series.Times[i], err)
		}
		state = res.State
		traj.Times = append(traj.Times, series.Times[i])
		traj.Inputs = append(traj.Inputs, uNow)
		traj.States = append(traj.States, state.Clone())
		traj.Steps = append(traj.Steps, res)
		tPrev, uPrev = series.Times[i], uNow
	}
	return traj, nil
}

// StdDev returns the per-component standard deviation implied by a square
// root S, the square roots of diag(S·Sᵀ).
func StdDev(s mat.Matrix) []float64 {
	r, c := s.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			v := s.At(i, j)
			sum += v * v
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

// StdDev returns the standard deviation of every state component at entry i.
func (t *Trajectory) StdDev(i int) []float64 { return StdDev(t.States[i].S) }
