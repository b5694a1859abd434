// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// MatrixNear reports whether a and b have the same shape and every element
// differs by at most tol.
func MatrixNear(a, b mat.Matrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	return mat.EqualApprox(a, b, tol)
}

// AssertMatrixNear fails the test if got and want differ by more than tol in
// any element.
func AssertMatrixNear(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()
	if !MatrixNear(got, want, tol) {
		t.Errorf("matrix mismatch (tol %g)\ngot:\n%v\nwant:\n%v",
			tol, mat.Formatted(got, mat.Squeeze()), mat.Formatted(want, mat.Squeeze()))
	}
}

// AssertFloatsNear fails the test if got and want differ in length or by more
// than tol at any index.
func AssertFloatsNear(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("length = %d, want %d", len(got), len(want))
		return
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol || math.IsNaN(got[i]) {
			t.Errorf("[%d] = %.6g, want %.6g (tol %g)", i, got[i], want[i], tol)
		}
	}
}

// Covariance returns s·sᵀ, the covariance a square-root factor represents.
func Covariance(s mat.Matrix) *mat.SymDense {
	r, _ := s.Dims()
	var p mat.Dense
	p.Mul(s, s.T())
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, 0.5*(p.At(i, j)+p.At(j, i)))
		}
	}
	return out
}
