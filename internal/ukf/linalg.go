package ukf

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errSVD = errors.New("ukf: SVD did not converge")

// CrossCov returns Vaᵀ·diag(W_c)·Vb, the weighted cross covariance of two
// clouds built from the same sigma points (Va = a - aMean, Vb = b - bMean).
func (c *Config) CrossCov(a *mat.Dense, aMean mat.Vector, b *mat.Dense, bMean mat.Vector) (*mat.Dense, error) {
	rows, _ := a.Dims()
	s, err := c.spreadForPoints(rows)
	if err != nil {
		return nil, err
	}
	return crossCov(a, aMean, b, bMean, s.w.Cov)
}

func crossCov(a *mat.Dense, aMean mat.Vector, b *mat.Dense, bMean mat.Vector, wc []float64) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ar != len(wc) {
		return nil, dimErr("cross-covariance points", br, bc, ar, bc)
	}
	if aMean.Len() != ac || bMean.Len() != bc {
		return nil, dimErr("cross-covariance means", aMean.Len(), bMean.Len(), ac, bc)
	}
	out := mat.NewDense(ac, bc, nil)
	for k := 0; k < ar; k++ {
		for i := 0; i < ac; i++ {
			da := wc[k] * (a.At(k, i) - aMean.AtVec(i))
			if da == 0 {
				continue
			}
			for j := 0; j < bc; j++ {
				out.Set(i, j, out.At(i, j)+da*(b.At(k, j)-bMean.AtVec(j)))
			}
		}
	}
	return out, nil
}

// solveGain returns G = C·(L·Lᵀ)⁻¹ without forming the inverse: first
// L·Y = Cᵀ, then Lᵀ·Gᵀ = Y, each as a minimum-norm least-squares solve so a
// singular L yields the pseudo-inverse solution.
func solveGain(l mat.Matrix, cov mat.Matrix) (*mat.Dense, error) {
	y, err := lstsq(l, cov.T())
	if err != nil {
		return nil, err
	}
	gt, err := lstsq(l.T(), y)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(gt.T()), nil
}

// lstsq returns the minimum-norm x minimising ||a·x - b||. Singular values
// below eps·max(m,n)·σ_max are treated as zero.
func lstsq(a, b mat.Matrix) (*mat.Dense, error) {
	m, n := a.Dims()
	br, bc := b.Dims()
	if br != m {
		return nil, dimErr("least-squares rhs", br, bc, m, bc)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errSVD
	}
	vals := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(vals) > 0 {
		tol = math.Nextafter(1, 2) - 1
		tol *= float64(max(m, n)) * vals[0]
	}

	var utb mat.Dense
	utb.Mul(u.T(), b)
	for i, s := range vals {
		row := utb.RawRowView(i)
		for j := range row {
			if s > tol {
				row[j] /= s
			} else {
				row[j] = 0
			}
		}
	}

	x := mat.NewDense(n, bc, nil)
	x.Mul(&v, &utb)
	return x, nil
}

// spectralNorm is the largest singular value of a, the matrix 2-norm.
func spectralNorm(a mat.Matrix) (float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return 0, errSVD
	}
	vals := svd.Values(nil)
	if len(vals) == 0 {
		return 0, nil
	}
	return vals[0], nil
}

// blockDiag places the square blocks along the diagonal of a new matrix.
// Diag returns a square matrix with d on its diagonal. Diag(nil) is nil.
func Diag(d []float64) *mat.Dense {
	if len(d) == 0 {
		return nil
	}
	out := mat.NewDense(len(d), len(d), nil)
	for i, v := range d {
		out.Set(i, i, v)
	}
	return out
}

// isNil reports whether m is nil, including a nil pointer of one of the
// gonum matrix types held in the interface.
func isNil(m mat.Matrix) bool {
	switch v := m.(type) {
	case nil:
		return true
	case *mat.Dense:
		return v == nil
	case *mat.TriDense:
		return v == nil
	case *mat.SymDense:
		return v == nil
	case *mat.DiagDense:
		return v == nil
	case *mat.VecDense:
		return v == nil
	}
	return false
}

// vecLenOrZero is the length of v, zero when v is nil.
func vecLenOrZero(v mat.Vector) int {
	if isNil(v) {
		return 0
	}
	return v.Len()
}

func blockDiag(blocks ...mat.Matrix) *mat.Dense {
	n := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		n += r
	}
	out := mat.NewDense(n, n, nil)
	off := 0
	for _, b := range blocks {
		r, c := b.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out.Set(off+i, off+j, b.At(i, j))
			}
		}
		off += r
	}
	return out
}
