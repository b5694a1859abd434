package ukf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/srukf/internal/testutil"
)

func cholLower(t *testing.T, p *mat.SymDense) *mat.TriDense {
	t.Helper()
	var ch mat.Cholesky
	require.True(t, ch.Factorize(p), "test covariance must be positive definite")
	var l mat.TriDense
	ch.LTo(&l)
	return &l
}

func TestSqrtCov_ReproducesKnownCovariance(t *testing.T) {
	t.Parallel()

	t.Run("state spread, positive central weight", func(t *testing.T) {
		c := mustConfig(t, 2, 0)
		require.Greater(t, c.StateWeights().Cov[0], 0.0)

		p := mat.NewSymDense(2, []float64{
			2.0, 0.3,
			0.3, 0.5,
		})
		mean := mat.NewVecDense(2, []float64{1, -1})
		pts, err := c.SigmaPoints(mean, cholLower(t, p))
		require.NoError(t, err)
		m, err := c.Mean(pts)
		require.NoError(t, err)

		s, err := c.SqrtCov(pts, m, nil)
		require.NoError(t, err)
		testutil.AssertMatrixNear(t, testutil.Covariance(s), p, 1e-10)

		for i := 0; i < 2; i++ {
			assert.GreaterOrEqual(t, s.At(i, i), 0.0)
		}
		assert.Zero(t, s.At(0, 1), "result is lower triangular")
	})

	t.Run("augmented spread, negative central weight", func(t *testing.T) {
		c := mustConfig(t, 2, 1) // NAug = 5, W_c[0] < 0
		require.Less(t, c.Weights().Cov[0], 0.0)

		p := mat.NewSymDense(5, []float64{
			4, 1, 0, 0, 0.5,
			1, 3, 0.2, 0, 0,
			0, 0.2, 1, 0, 0,
			0, 0, 0, 2, 0.1,
			0.5, 0, 0, 0.1, 1,
		})
		mean := mat.NewVecDense(5, []float64{0.5, 1, 0, 0, 0})
		pts, err := c.SigmaPoints(mean, cholLower(t, p))
		require.NoError(t, err)
		m, err := c.Mean(pts)
		require.NoError(t, err)

		s, err := c.SqrtCov(pts, m, nil)
		require.NoError(t, err)
		testutil.AssertMatrixNear(t, testutil.Covariance(s), p, 1e-9)
	})
}

func TestSqrtCov_ExtraNoiseBlock(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 2, 0)
	p := mat.NewSymDense(2, []float64{1, 0.2, 0.2, 1})
	mean := mat.NewVecDense(2, nil)
	pts, err := c.SigmaPoints(mean, cholLower(t, p))
	require.NoError(t, err)

	q := mat.NewDense(2, 2, []float64{0.3, 0, 0, 0.4})
	s, err := c.SqrtCov(pts, mean, q)
	require.NoError(t, err)

	want := mat.NewSymDense(2, []float64{1 + 0.09, 0.2, 0.2, 1 + 0.16})
	testutil.AssertMatrixNear(t, testutil.Covariance(s), want, 1e-10)

	_, err = c.SqrtCov(pts, mean, mat.NewDense(3, 1, nil))
	assert.ErrorIs(t, err, ErrDimension)
}

func TestSqrtCov_DimensionMismatch(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 2, 0)
	_, err := c.SqrtCov(mat.NewDense(4, 2, nil), mat.NewVecDense(2, nil), nil)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = c.SqrtCov(mat.NewDense(5, 2, nil), mat.NewVecDense(3, nil), nil)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestCholUpdate_UpdateAndDowndate(t *testing.T) {
	t.Parallel()

	l := lower(2, 2, 0, 1, 1)
	x := mat.NewVecDense(2, []float64{1, 0.5})

	up, err := CholUpdate(l, x, 1)
	require.NoError(t, err)

	var want mat.Dense
	want.Mul(l, l.T())
	var xxT mat.Dense
	xxT.Outer(1, x, x)
	want.Add(&want, &xxT)
	testutil.AssertMatrixNear(t, testutil.Covariance(up), &want, 1e-12)

	down, err := CholUpdate(up, x, -1)
	require.NoError(t, err)
	testutil.AssertMatrixNear(t, down, l, 1e-12)

	// Inputs are not modified.
	testutil.AssertMatrixNear(t, l, lower(2, 2, 0, 1, 1), 0)
	assert.Equal(t, 1.0, x.AtVec(0))
	assert.Equal(t, 0.5, x.AtVec(1))
}

func TestCholUpdate_MultipleColumns(t *testing.T) {
	t.Parallel()

	l := lower(3, 1, 0, 0, 0.5, 1, 0, 0.2, 0.1, 1)
	x := mat.NewDense(3, 2, []float64{
		0.3, -0.1,
		0.2, 0.4,
		-0.5, 0.2,
	})

	got, err := CholUpdate(l, x, 1)
	require.NoError(t, err)

	var want, xxT mat.Dense
	want.Mul(l, l.T())
	xxT.Mul(x, x.T())
	want.Add(&want, &xxT)
	testutil.AssertMatrixNear(t, testutil.Covariance(got), &want, 1e-12)
}

func TestCholUpdate_UpperInputIsTransposed(t *testing.T) {
	t.Parallel()

	u := mat.NewTriDense(2, mat.Upper, []float64{2, 1, 0, 1})
	got, err := CholUpdate(u, mat.NewVecDense(2, nil), 1)
	require.NoError(t, err)
	testutil.AssertMatrixNear(t, got, lower(2, 2, 0, 1, 1), 0)
}

// A downdate that removes more variance than the factor holds collapses that
// direction to zero instead of producing NaN or an error.
func TestCholUpdate_DowndateClampsToZero(t *testing.T) {
	t.Parallel()

	l := lower(1, 1)
	got, err := CholUpdate(l, mat.NewVecDense(1, []float64{2}), -1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.At(0, 0))

	l2 := lower(2, 1, 0, 0.5, 1)
	got2, err := CholUpdate(l2, mat.NewVecDense(2, []float64{3, 0}), -1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got2.At(0, 0))
	assert.Equal(t, 0.0, got2.At(1, 0))
	assert.Equal(t, 1.0, got2.At(1, 1), "untouched direction keeps its variance")
	for i := 0; i < 2; i++ {
		for j := 0; j <= i; j++ {
			assert.False(t, math.IsNaN(got2.At(i, j)), "NaN at %d,%d", i, j)
		}
	}
}

func TestCholUpdate_DimensionMismatch(t *testing.T) {
	t.Parallel()

	_, err := CholUpdate(lower(2, 1, 0, 0, 1), mat.NewVecDense(3, nil), 1)
	assert.ErrorIs(t, err, ErrDimension)
}
