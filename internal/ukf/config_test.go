package ukf

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewConfig_Dimensions(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 2, 1)
	assert.Equal(t, 2, c.NState())
	assert.Equal(t, 1, c.NOutputs())
	assert.Equal(t, 5, c.NAug())
	assert.Equal(t, 11, c.NPoints())
	assert.Len(t, c.Weights().Mean, 11)
	assert.Len(t, c.StateWeights().Mean, 5)
}

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 1, 1)
	assert.InDelta(t, 1/math.Sqrt(3), c.Alpha(), 1e-15)
	assert.Equal(t, 2.0, c.Beta())
	assert.Equal(t, 0.0, c.K(), "k defaults to 3 - n_aug")
	assert.InDelta(t, -2.0, c.Lambda(), 1e-12)
	assert.InDelta(t, 1.0, c.SqrtC(), 1e-12)

	assert.Equal(t, 0.995, c.AlphaQ())
	assert.Equal(t, 0.995, c.LambdaS())
	assert.InDelta(t, (1-0.995)/math.Sqrt(3), c.A(), 1e-15)
	assert.Equal(t, 0.1, c.MinS().At(0, 0))
}

func TestNewConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		nState   int
		nOutputs int
	}{
		{"zero states", 0, 1},
		{"negative states", -1, 1},
		{"negative outputs", 1, -1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConfig(tt.nState, tt.nOutputs)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestWeights_SumAndCentral(t *testing.T) {
	t.Parallel()

	k := 1.5
	cases := []struct {
		name   string
		nState int
		nOut   int
		spread SpreadParams
	}{
		{"default 1x1", 1, 1, SpreadParams{Alpha: DefaultAlpha, Beta: DefaultBeta}},
		{"default 3x2", 3, 2, SpreadParams{Alpha: DefaultAlpha, Beta: DefaultBeta}},
		{"small alpha", 2, 1, SpreadParams{Alpha: 0.5, Beta: 2}},
		{"explicit k", 2, 2, SpreadParams{Alpha: 1, Beta: 0, K: &k}},
		{"no outputs", 2, 0, SpreadParams{Alpha: 0.8, Beta: 2}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := mustConfig(t, tc.nState, tc.nOut).WithSpread(tc.spread)
			require.NoError(t, err)

			for _, w := range []Weights{c.Weights(), c.StateWeights()} {
				sum := 0.0
				for _, v := range w.Mean {
					sum += v
				}
				assert.InDelta(t, 1.0, sum, 1e-12)

				a := tc.spread.Alpha
				assert.InDelta(t, w.Mean[0]+(1-a*a+tc.spread.Beta), w.Cov[0], 1e-12)

				for i := 1; i < len(w.Mean); i++ {
					assert.Equal(t, w.Mean[1], w.Mean[i])
					assert.Equal(t, w.Mean[i], w.Cov[i])
				}
			}

			l := float64(c.NAug())
			assert.InDelta(t, 1/(2*(l+c.Lambda())), c.Weights().Mean[1], 1e-12)
		})
	}
}

func TestWithSpread_RejectsNonPositiveSpread(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 1, 1)

	k := -3.0 // lambda + L = alpha²(L+k) = 0 for L = 3
	_, err := c.WithSpread(SpreadParams{Alpha: 1, Beta: 2, K: &k})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = c.WithSpread(SpreadParams{Alpha: 0, Beta: 2})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = c.WithSpread(SpreadParams{Alpha: math.NaN(), Beta: 2})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWithSpread_KOverridesAugmentedSpreadOnly(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 1, 1)

	// Valid for NAug = 3 (alpha²(3-2.5) > 0) but not for NState = 1.
	k := -2.5
	c2, err := c.WithSpread(SpreadParams{Alpha: 1 / math.Sqrt(3), Beta: 2, K: &k})
	require.NoError(t, err)

	assert.Equal(t, -2.5, c2.K())
	assert.InDelta(t, 1.0/6, float64(c2.NAug())+c2.Lambda(), 1e-12)
	assert.Equal(t, c.StateWeights(), c2.StateWeights(), "state spread keeps k = 3 - NState")
}

func TestWithSpread_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 2, 1)
	before := c.Weights()

	k := 1.0
	c2, err := c.WithSpread(SpreadParams{Alpha: 0.9, Beta: 1, K: &k})
	require.NoError(t, err)

	assert.Equal(t, before, c.Weights())
	assert.NotEqual(t, before, c2.Weights())
	assert.Equal(t, 1.0, c2.K())
	assert.InDelta(t, 0.9*math.Sqrt(1+5), c2.SqrtC(), 1e-12)
}

func TestWithAdaptive(t *testing.T) {
	t.Parallel()

	c := mustConfig(t, 2, 1)
	floor := mat.NewDense(2, 2, []float64{0.2, 0, 0, 0.3})

	c2, err := c.WithAdaptive(0.9, 0.5, floor)
	require.NoError(t, err)
	assert.Equal(t, 0.9, c2.AlphaQ())
	assert.Equal(t, 0.9, c2.LambdaS())
	assert.InDelta(t, 0.05, c2.A(), 1e-15)
	assert.True(t, mat.Equal(floor, c2.MinS()))

	// The floor is copied, not aliased.
	floor.Set(0, 0, 99)
	assert.Equal(t, 0.2, c2.MinS().At(0, 0))

	// Receiver untouched.
	assert.Equal(t, 0.995, c.AlphaQ())

	t.Run("nil floor is zero", func(t *testing.T) {
		c3, err := c.WithAdaptive(0.9, 0.5, nil)
		require.NoError(t, err)
		assert.True(t, mat.Equal(mat.NewDense(2, 2, nil), c3.MinS()))
	})

	t.Run("bad alpha_q", func(t *testing.T) {
		_, err := c.WithAdaptive(1.5, 0.5, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("floor shape", func(t *testing.T) {
		_, err := c.WithAdaptive(0.9, 0.5, mat.NewDense(3, 3, nil))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.True(t, errors.Is(err, ErrDimension))
	})
}
