package ukf

import "gonum.org/v1/gonum/mat"

// SigmaPoints generates the 2d+1 sigma points of mean and its square-root
// covariance. d must be either NAug (filter step) or NState (smoother); the
// matching spread parameters are used.
//
// Point 0 is the mean. Points 1..d and d+1..2d are mean ± sqrtC·s_i where s_i
// is column i of sqrtCov, so the cloud carries sqrtCov·sqrtCovᵀ. Any square
// root works; a lower-triangular one is what the filter produces.
func (c *Config) SigmaPoints(mean mat.Vector, sqrtCov mat.Matrix) (*mat.Dense, error) {
	s, err := c.spreadForDim(mean.Len())
	if err != nil {
		return nil, err
	}
	return s.sigmaPoints(mean, sqrtCov)
}

func (s *spread) sigmaPoints(mean mat.Vector, sqrtCov mat.Matrix) (*mat.Dense, error) {
	d := s.dim
	if mean.Len() != d {
		return nil, dimErr("mean", mean.Len(), 1, d, 1)
	}
	if r, cc := sqrtCov.Dims(); r != d || cc != d {
		return nil, dimErr("sqrtCov", r, cc, d, d)
	}

	pts := mat.NewDense(2*d+1, d, nil)
	for j := 0; j < d; j++ {
		m := mean.AtVec(j)
		pts.Set(0, j, m)
		for i := 0; i < d; i++ {
			v := s.sqrtC * sqrtCov.At(j, i)
			pts.Set(1+i, j, m+v)
			pts.Set(1+i+d, j, m-v)
		}
	}
	return pts, nil
}

func (c *Config) spreadForDim(d int) (*spread, error) {
	switch d {
	case c.aug.dim:
		return c.aug, nil
	case c.state.dim:
		return c.state, nil
	}
	return nil, dimErr("sigma-point dimension", d, 1, c.aug.dim, 1)
}

func (c *Config) spreadForPoints(rows int) (*spread, error) {
	switch rows {
	case c.aug.points():
		return c.aug, nil
	case c.state.points():
		return c.state, nil
	}
	return nil, dimErr("sigma points", rows, 0, c.aug.points(), 0)
}
