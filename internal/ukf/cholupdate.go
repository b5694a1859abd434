package ukf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CholUpdate returns the lower-triangular L' with
//
//	L'·L'ᵀ = L·Lᵀ + sign · Σ_j x_j·x_jᵀ
//
// where x_j are the columns of x, applied one after another. sign >= 0 is an
// update, sign < 0 a downdate. s itself is never modified.
//
// A downdate that would drive a diagonal entry imaginary is clamped: the entry
// becomes zero, the rest of its column is zeroed and the remaining components
// of x_j pass through unchanged. The factor then describes zero variance along
// that direction instead of failing.
func CholUpdate(s mat.Triangular, x mat.Matrix, sign float64) (*mat.TriDense, error) {
	n, kind := s.Triangle()
	xr, xc := x.Dims()
	if xr != n {
		return nil, dimErr("update vectors", xr, xc, n, xc)
	}

	// Work on an owned row-major copy of the lower factor.
	l := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if kind == mat.Upper {
				l[i*n+j] = s.At(j, i)
			} else {
				l[i*n+j] = s.At(i, j)
			}
		}
	}

	sgn := 1.0
	if sign < 0 {
		sgn = -1.0
	}
	v := make([]float64, n)
	for col := 0; col < xc; col++ {
		for i := 0; i < n; i++ {
			v[i] = x.At(i, col)
		}
		rankOne(l, v, n, sgn)
	}

	out := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			out.SetTri(i, j, l[i*n+j])
		}
	}
	return out, nil
}

// rankOne applies one hyperbolic/Givens sweep to the row-major lower factor l.
// v is consumed.
func rankOne(l, v []float64, n int, sgn float64) {
	for k := 0; k < n; k++ {
		if v[k] == 0 {
			continue
		}
		old := l[k*n+k]
		arg := old*old + sgn*v[k]*v[k]
		rr := 0.0
		if arg > 0 {
			rr = math.Sqrt(arg)
		}
		if rr == 0 {
			l[k*n+k] = 0
			for i := k + 1; i < n; i++ {
				l[i*n+k] = 0
			}
			continue
		}
		// With c = rr/old and s = v[k]/old this is
		//   L[i,k] = (L[i,k] + sgn·s·v[i]) / c
		//   v[i]   = c·v[i] - s·L'[i,k]
		// rearranged so that old == 0 is not divided by.
		for i := k + 1; i < n; i++ {
			lik := l[i*n+k]
			l[i*n+k] = (old*lik + sgn*v[k]*v[i]) / rr
			v[i] = (old*v[i] - v[k]*lik) / rr
		}
		l[k*n+k] = rr
	}
}
