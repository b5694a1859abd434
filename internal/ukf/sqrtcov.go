package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SqrtCov returns the lower-triangular square root of the weighted covariance
// of a propagated sigma-point cloud about mean.
//
// The deviations of points 1..N-1, scaled by sign(W_c[i])·sqrt|W_c[i]|, are
// stacked with the columns of extra (if non-nil) and QR-factorized; Rᵀ is the
// candidate factor. The central point's deviation weighted by W_c[0] is then
// folded in with CholUpdate, which handles a negative W_c[0] as a downdate.
func (c *Config) SqrtCov(points *mat.Dense, mean mat.Vector, extra mat.Matrix) (*mat.TriDense, error) {
	rows, _ := points.Dims()
	s, err := c.spreadForPoints(rows)
	if err != nil {
		return nil, err
	}
	return s.sqrtCov(points, mean, extra)
}

func (s *spread) sqrtCov(points *mat.Dense, mean mat.Vector, extra mat.Matrix) (*mat.TriDense, error) {
	rows, d := points.Dims()
	if rows != s.points() {
		return nil, dimErr("sigma points", rows, d, s.points(), d)
	}
	if mean.Len() != d {
		return nil, dimErr("mean", mean.Len(), 1, d, 1)
	}
	ne := 0
	if !isNil(extra) {
		er, ec := extra.Dims()
		if er != d {
			return nil, dimErr("extra noise block", er, ec, d, ec)
		}
		ne = ec
	}
	m := rows - 1 + ne
	if m < d {
		return nil, fmt.Errorf("%w: %d deviation columns cannot span dimension %d", ErrDimension, m, d)
	}

	a := mat.NewDense(m, d, nil)
	for i := 1; i < rows; i++ {
		w := signedRoot(s.w.Cov[i])
		for j := 0; j < d; j++ {
			a.Set(i-1, j, w*(points.At(i, j)-mean.AtVec(j)))
		}
	}
	for e := 0; e < ne; e++ {
		for j := 0; j < d; j++ {
			a.Set(rows-1+e, j, extra.At(j, e))
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var r mat.Dense
	qr.RTo(&r)

	lower := mat.NewTriDense(d, mat.Lower, nil)
	for k := 0; k < d; k++ {
		flip := 1.0
		if r.At(k, k) < 0 {
			flip = -1.0
		}
		for j := k; j < d; j++ {
			lower.SetTri(j, k, flip*r.At(k, j))
		}
	}

	w0 := s.w.Cov[0]
	x0 := mat.NewVecDense(d, nil)
	wr := signedRoot(w0)
	for j := 0; j < d; j++ {
		x0.SetVec(j, wr*(points.At(0, j)-mean.AtVec(j)))
	}
	return CholUpdate(lower, x0, sign(w0))
}
