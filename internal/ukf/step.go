package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// State is the filter state carried from one step to the next.
type State struct {
	// X is the state mean.
	X *mat.VecDense
	// S is the lower-triangular square root of the state covariance.
	S *mat.TriDense
	// Sq is the externally supplied process square-root covariance; in
	// adaptive mode it decays by alpha_q every step. nil means zero.
	Sq *mat.Dense
	// AlphaS weighs S in the adaptive process covariance.
	AlphaS float64
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{AlphaS: s.AlphaS}
	if s.X != nil {
		out.X = mat.VecDenseCopyOf(s.X)
	}
	if s.S != nil {
		out.S = triCopy(s.S)
	}
	if s.Sq != nil {
		out.Sq = mat.DenseCopyOf(s.Sq)
	}
	return out
}

// Inputs are the model inputs and times bracketing one step.
type Inputs struct {
	UPrev, UNow mat.Vector
	TPrev, TNow float64
}

// StepOptions control a single Step.
type StepOptions struct {
	// Adaptive enables process-noise inflation from the state covariance.
	Adaptive bool
	// Trace, when non-nil, receives the intermediate matrices.
	Trace TraceSink
}

// StepResult is the outcome of one predict/correct step.
type StepResult struct {
	// State is the corrected state with the updated Sq and AlphaS.
	State State
	// PredictedMean and PredictedSqrtCov are the a-priori state statistics.
	PredictedMean    *mat.VecDense
	PredictedSqrtCov *mat.TriDense
	// OutputMean and OutputSqrtCov are the predicted output statistics.
	// Both are nil when the configuration has no outputs.
	OutputMean    *mat.VecDense
	OutputSqrtCov *mat.TriDense
	Innovation    *mat.VecDense
	Gain          *mat.Dense
}

// Step runs one prediction and correction of the augmented SR-UKF.
//
// z is the measurement at in.TNow and sr the output square-root covariance.
// With NOutputs == 0 the step is a pure prediction: z and sr must be nil (or
// empty) and the returned state is the predicted one.
//
// A singular output covariance is not an error: the gain comes from
// minimum-norm least squares. A downdate that would make the covariance
// indefinite is clamped to zero variance (see CholUpdate).
func (c *Config) Step(m Model, z mat.Vector, prior State, sr mat.Matrix, in Inputs, opts StepOptions) (*StepResult, error) {
	if err := c.checkStep(z, prior, sr); err != nil {
		return nil, err
	}
	n, p := c.nState, c.nOutputs

	xa := mat.NewVecDense(c.NAug(), nil)
	for i := 0; i < n; i++ {
		xa.SetVec(i, prior.X.AtVec(i))
	}

	alphaS := prior.AlphaS*c.lambdaS + c.a

	sq := mat.NewDense(n, n, nil)
	if prior.Sq != nil {
		sq.Copy(prior.Sq)
	}
	actualSq := mat.DenseCopyOf(sq)
	if opts.Adaptive {
		var inflation mat.Dense
		inflation.Scale(alphaS, prior.S)
		actualSq.Add(actualSq, &inflation)

		actualNorm, err := spectralNorm(actualSq)
		if err != nil {
			return nil, fmt.Errorf("adaptive process covariance: %w", err)
		}
		floorNorm, err := spectralNorm(c.minS)
		if err != nil {
			return nil, fmt.Errorf("process covariance floor: %w", err)
		}
		if actualNorm <= floorNorm {
			actualSq = mat.DenseCopyOf(c.minS)
		}
		sq.Scale(c.alphaQ, sq)
	}
	trace(opts.Trace, "process sqrt cov", actualSq)

	var sa *mat.Dense
	if p > 0 {
		sa = blockDiag(prior.S, actualSq, sr)
	} else {
		sa = blockDiag(prior.S, actualSq)
	}

	pts, err := c.aug.sigmaPoints(xa, sa)
	if err != nil {
		return nil, err
	}
	trace(opts.Trace, "sigma points", pts)

	xProj, err := c.PropagateState(m, pts, in.UPrev, in.UNow, in.TPrev, in.TNow)
	if err != nil {
		return nil, err
	}
	trace(opts.Trace, "state projections", xProj)

	xMean := weightedMean(xProj, c.aug.w.Mean)
	trace(opts.Trace, "state mean", xMean)

	sx, err := c.aug.sqrtCov(xProj, xMean, nil)
	if err != nil {
		return nil, fmt.Errorf("state sqrt covariance: %w", err)
	}
	trace(opts.Trace, "state sqrt cov", sx)

	res := &StepResult{
		PredictedMean:    xMean,
		PredictedSqrtCov: sx,
	}
	if p == 0 {
		res.State = State{X: mat.VecDenseCopyOf(xMean), S: sx, Sq: sq, AlphaS: alphaS}
		return res, nil
	}

	zProj, err := c.PropagateOutput(m, pts, in.UNow, in.TNow)
	if err != nil {
		return nil, err
	}
	trace(opts.Trace, "output projections", zProj)

	zMean := weightedMean(zProj, c.aug.w.Mean)
	trace(opts.Trace, "output mean", zMean)

	sy, err := c.aug.sqrtCov(zProj, zMean, nil)
	if err != nil {
		return nil, fmt.Errorf("output sqrt covariance: %w", err)
	}
	trace(opts.Trace, "output sqrt cov", sy)

	cxz, err := crossCov(xProj, xMean, zProj, zMean, c.aug.w.Cov)
	if err != nil {
		return nil, err
	}
	trace(opts.Trace, "state/output cross covariance", cxz)

	gain, err := solveGain(sy, cxz)
	if err != nil {
		return nil, fmt.Errorf("kalman gain: %w", err)
	}
	trace(opts.Trace, "gain", gain)

	innov := mat.NewVecDense(p, nil)
	innov.SubVec(z, zMean)

	x := mat.NewVecDense(n, nil)
	x.MulVec(gain, innov)
	x.AddVec(xMean, x)

	var u mat.Dense
	u.Mul(gain, sy)
	sCorr, err := CholUpdate(sx, &u, -1)
	if err != nil {
		return nil, fmt.Errorf("covariance downdate: %w", err)
	}
	trace(opts.Trace, "corrected sqrt cov", sCorr)

	res.State = State{X: x, S: sCorr, Sq: sq, AlphaS: alphaS}
	res.OutputMean = zMean
	res.OutputSqrtCov = sy
	res.Innovation = innov
	res.Gain = gain
	return res, nil
}

func (c *Config) checkStep(z mat.Vector, prior State, sr mat.Matrix) error {
	n, p := c.nState, c.nOutputs
	if prior.X == nil || prior.X.Len() != n {
		return dimErr("state mean", vecLen(prior.X), 1, n, 1)
	}
	if prior.S == nil {
		return dimErr("state sqrt cov", 0, 0, n, n)
	}
	if r, cc := prior.S.Dims(); r != n || cc != n {
		return dimErr("state sqrt cov", r, cc, n, n)
	}
	if prior.Sq != nil {
		if r, cc := prior.Sq.Dims(); r != n || cc != n {
			return dimErr("process sqrt cov", r, cc, n, n)
		}
	}

	if p == 0 {
		if zl := vecLenOrZero(z); zl != 0 {
			return dimErr("measurement", zl, 1, 0, 1)
		}
		if !isNil(sr) {
			if r, cc := sr.Dims(); r != 0 || cc != 0 {
				return dimErr("output sqrt cov", r, cc, 0, 0)
			}
		}
		return nil
	}

	if zl := vecLenOrZero(z); zl != p {
		return dimErr("measurement", zl, 1, p, 1)
	}
	if isNil(sr) {
		return dimErr("output sqrt cov", 0, 0, p, p)
	}
	if r, cc := sr.Dims(); r != p || cc != p {
		return dimErr("output sqrt cov", r, cc, p, p)
	}
	return nil
}
