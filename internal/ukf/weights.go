package ukf

import (
	"fmt"
	"math"
)

// Weights are the unscented mean and covariance weights of one sigma-point set.
// Index 0 belongs to the central point.
type Weights struct {
	Mean []float64
	Cov  []float64
}

// spread holds the unscented transform parameters for sigma points of a
// given dimension.
type spread struct {
	dim    int
	lambda float64
	sqrtC  float64
	w      Weights
}

func newSpread(dim int, alpha, beta, k float64) (*spread, error) {
	l := float64(dim)
	if dim < 1 {
		return nil, fmt.Errorf("%w: sigma-point dimension %d", ErrInvalidConfig, dim)
	}
	if alpha <= 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("%w: alpha must be positive and finite, got %g", ErrInvalidConfig, alpha)
	}
	if math.IsNaN(beta) || math.IsNaN(k) {
		return nil, fmt.Errorf("%w: beta and k must be numbers", ErrInvalidConfig)
	}
	lambda := alpha*alpha*(l+k) - l
	if l+lambda <= 0 {
		return nil, fmt.Errorf("%w: lambda+L = %g for L=%d, k=%g (must be positive)", ErrInvalidConfig, l+lambda, dim, k)
	}

	n := 2*dim + 1
	w := Weights{Mean: make([]float64, n), Cov: make([]float64, n)}
	w.Mean[0] = lambda / (l + lambda)
	w.Cov[0] = w.Mean[0] + (1 - alpha*alpha + beta)
	wi := 1.0 / (2.0 * (l + lambda))
	for i := 1; i < n; i++ {
		w.Mean[i] = wi
		w.Cov[i] = wi
	}

	return &spread{
		dim:    dim,
		lambda: lambda,
		sqrtC:  alpha * math.Sqrt(k+l),
		w:      w,
	}, nil
}

func (s *spread) points() int { return 2*s.dim + 1 }

func (w Weights) clone() Weights {
	return Weights{
		Mean: append([]float64(nil), w.Mean...),
		Cov:  append([]float64(nil), w.Cov...),
	}
}

// signedRoot returns sign(w)·sqrt(|w|).
func signedRoot(w float64) float64 {
	switch {
	case w > 0:
		return math.Sqrt(w)
	case w < 0:
		return -math.Sqrt(-w)
	}
	return 0
}

func sign(w float64) float64 {
	if w < 0 {
		return -1
	}
	return 1
}
