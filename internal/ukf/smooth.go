package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SmoothOptions control a backward pass.
type SmoothOptions struct {
	Trace TraceSink
}

// Smoothed is the output of Smooth, indexed like the input trajectory.
type Smoothed struct {
	Times []float64
	X     []*mat.VecDense
	S     []*mat.TriDense
	// Gains[i] is the smoothing gain applied at index i (len(X)-1 entries).
	Gains []*mat.Dense
}

// Len is the number of smoothed states.
func (s *Smoothed) Len() int { return len(s.X) }

// StdDev returns the standard deviation of every state component at entry i.
func (s *Smoothed) StdDev(i int) []float64 { return StdDev(s.S[i]) }

// Trajectory repackages the smoothed states as a Trajectory without step
// diagnostics. Adaptive noise fields are left empty.
func (s *Smoothed) Trajectory() *Trajectory {
	out := &Trajectory{
		Times:  append([]float64(nil), s.Times...),
		States: make([]State, len(s.X)),
	}
	for i := range s.X {
		out.States[i] = State{X: s.X[i], S: s.S[i]}
	}
	return out
}

// smoothRecord is one entry of the backward-pass arena.
type smoothRecord struct {
	x *mat.VecDense
	s *mat.TriDense
}

// Smooth runs one RTS-style backward pass over a filtered trajectory.
//
// For i = N-2 … 0 the filtered (x_i, S_i) is expanded into state sigma points,
// moved one step ahead with the model transition, and summarised with sqrtQ
// as an additional noise block. The gain D = C·(S̄·S̄ᵀ)⁻¹, with C the
// now/ahead cross covariance, corrects
//
//	x_i ← x_i + D·(x^s_{i+1} − x̄_{i+1})
//	S_i ← CholUpdate(S_i, D·(S^s_{i+1} − S̄_{i+1}), −1)
//
// The last entry is returned as filtered. traj is not modified.
func (c *Config) Smooth(m Model, traj *Trajectory, sqrtQ mat.Matrix, opts SmoothOptions) (*Smoothed, error) {
	if err := c.checkSmooth(traj, sqrtQ); err != nil {
		return nil, err
	}
	n := len(traj.States)

	arena := make([]smoothRecord, n)
	for i, st := range traj.States {
		arena[i] = smoothRecord{x: mat.VecDenseCopyOf(st.X), s: triCopy(st.S)}
	}
	gains := make([]*mat.Dense, n-1)

	for i := n - 2; i >= 0; i-- {
		xi, si := traj.States[i].X, traj.States[i].S

		pts, err := c.state.sigmaPoints(xi, si)
		if err != nil {
			return nil, fmt.Errorf("smoothing index %d: %w", i, err)
		}
		ptsMean := weightedMean(pts, c.state.w.Mean)

		ahead, err := c.PropagateState(m, pts, inputAt(traj.Inputs, i), inputAt(traj.Inputs, i+1), traj.Times[i], traj.Times[i+1])
		if err != nil {
			return nil, fmt.Errorf("smoothing index %d: %w", i, err)
		}
		aheadMean := weightedMean(ahead, c.state.w.Mean)
		trace(opts.Trace, "smoother projections", ahead)

		sAhead, err := c.state.sqrtCov(ahead, aheadMean, sqrtQ)
		if err != nil {
			return nil, fmt.Errorf("smoothing index %d: predicted sqrt covariance: %w", i, err)
		}
		trace(opts.Trace, "smoother predicted sqrt cov", sAhead)

		cxx, err := crossCov(pts, ptsMean, ahead, aheadMean, c.state.w.Cov)
		if err != nil {
			return nil, fmt.Errorf("smoothing index %d: %w", i, err)
		}
		trace(opts.Trace, "smoother cross covariance", cxx)

		d, err := solveGain(sAhead, cxx)
		if err != nil {
			return nil, fmt.Errorf("smoothing index %d: gain: %w", i, err)
		}
		trace(opts.Trace, "smoother gain", d)
		gains[i] = d

		diff := mat.NewVecDense(c.nState, nil)
		diff.SubVec(arena[i+1].x, aheadMean)
		x := mat.NewVecDense(c.nState, nil)
		x.MulVec(d, diff)
		x.AddVec(xi, x)

		var sd, v mat.Dense
		sd.Sub(arena[i+1].s, sAhead)
		v.Mul(d, &sd)
		s, err := CholUpdate(si, &v, -1)
		if err != nil {
			return nil, fmt.Errorf("smoothing index %d: downdate: %w", i, err)
		}

		arena[i] = smoothRecord{x: x, s: s}
	}

	out := &Smoothed{
		Times: append([]float64(nil), traj.Times...),
		X:     make([]*mat.VecDense, n),
		S:     make([]*mat.TriDense, n),
		Gains: gains,
	}
	for i, r := range arena {
		out.X[i] = r.x
		out.S[i] = r.s
	}
	return out, nil
}

func (c *Config) checkSmooth(traj *Trajectory, sqrtQ mat.Matrix) error {
	if traj == nil || len(traj.States) == 0 {
		return fmt.Errorf("%w: empty trajectory", ErrDimension)
	}
	n := len(traj.States)
	if len(traj.Times) != n {
		return fmt.Errorf("%w: %d times for %d states", ErrDimension, len(traj.Times), n)
	}
	if traj.Inputs != nil && len(traj.Inputs) != n {
		return fmt.Errorf("%w: %d inputs for %d states", ErrDimension, len(traj.Inputs), n)
	}
	for i, st := range traj.States {
		if st.X == nil || st.X.Len() != c.nState {
			return fmt.Errorf("state %d: %w", i, dimErr("state mean", vecLen(st.X), 1, c.nState, 1))
		}
		if st.S == nil {
			return fmt.Errorf("state %d: %w", i, dimErr("state sqrt cov", 0, 0, c.nState, c.nState))
		}
		if r, cc := st.S.Dims(); r != c.nState || cc != c.nState {
			return fmt.Errorf("state %d: %w", i, dimErr("state sqrt cov", r, cc, c.nState, c.nState))
		}
	}
	if !isNil(sqrtQ) {
		if r, cc := sqrtQ.Dims(); r != c.nState {
			return dimErr("process sqrt cov", r, cc, c.nState, cc)
		}
	}
	return nil
}

func triCopy(s *mat.TriDense) *mat.TriDense {
	n, kind := s.Triangle()
	out := mat.NewTriDense(n, kind, nil)
	out.Copy(s)
	return out
}
