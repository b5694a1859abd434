package ukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Default spread and adaptive parameters.
var (
	DefaultAlpha  = 1.0 / math.Sqrt(3.0)
	DefaultBeta   = 2.0
	DefaultAlphaQ = 0.995
	DefaultMu     = 1.0 / math.Sqrt(3.0)
	// DefaultMinSScale is the diagonal of the default process-covariance floor.
	DefaultMinSScale = 0.1
)

// SpreadParams shape the sigma-point spread and weights.
type SpreadParams struct {
	Alpha float64
	Beta  float64
	// K overrides the default 3 - NAug (3 - NState for the smoother set).
	K *float64
}

// Config is an immutable filter configuration. The With* methods return
// modified copies with recomputed weights.
type Config struct {
	nState   int
	nOutputs int

	alpha float64
	beta  float64
	k     *float64

	alphaQ  float64
	lambdaS float64
	mu      float64
	a       float64
	minS    *mat.Dense

	// aug is the spread of augmented sigma points used by Step;
	// state is the spread of state-only sigma points used by Smooth.
	aug   *spread
	state *spread
}

// NewConfig returns a configuration for nState hidden states and nOutputs
// measured outputs with default spread and adaptive parameters.
func NewConfig(nState, nOutputs int) (*Config, error) {
	if nState < 1 {
		return nil, fmt.Errorf("%w: n_state must be >= 1, got %d", ErrInvalidConfig, nState)
	}
	if nOutputs < 0 {
		return nil, fmt.Errorf("%w: n_outputs must be >= 0, got %d", ErrInvalidConfig, nOutputs)
	}

	c := &Config{nState: nState, nOutputs: nOutputs}
	if err := c.setSpread(SpreadParams{Alpha: DefaultAlpha, Beta: DefaultBeta}); err != nil {
		return nil, err
	}
	minS := mat.NewDense(nState, nState, nil)
	for i := 0; i < nState; i++ {
		minS.Set(i, i, DefaultMinSScale)
	}
	if err := c.setAdaptive(DefaultAlphaQ, DefaultMu, minS); err != nil {
		return nil, err
	}
	return c, nil
}

// WithSpread returns a copy using the given spread parameters.
func (c *Config) WithSpread(p SpreadParams) (*Config, error) {
	cp := c.clone()
	if err := cp.setSpread(p); err != nil {
		return nil, err
	}
	return cp, nil
}

// WithAdaptive returns a copy with new adaptive process-noise parameters.
// alphaQ is both the decay of the supplied Sq and the growth rate lambda_s of
// the inflation scalar; A = (1-alphaQ)*mu. A nil minS means a zero floor.
func (c *Config) WithAdaptive(alphaQ, mu float64, minS mat.Matrix) (*Config, error) {
	cp := c.clone()
	if err := cp.setAdaptive(alphaQ, mu, minS); err != nil {
		return nil, err
	}
	return cp, nil
}

func (c *Config) setSpread(p SpreadParams) error {
	// K overrides the augmented spread only; the smoother's state spread
	// keeps k = 3 - NState since a k valid for NAug need not be for NState.
	augK := float64(3 - c.NAug())
	stateK := float64(3 - c.nState)
	if p.K != nil {
		augK = *p.K
	}
	aug, err := newSpread(c.NAug(), p.Alpha, p.Beta, augK)
	if err != nil {
		return fmt.Errorf("augmented spread: %w", err)
	}
	state, err := newSpread(c.nState, p.Alpha, p.Beta, stateK)
	if err != nil {
		return fmt.Errorf("state spread: %w", err)
	}
	c.alpha, c.beta = p.Alpha, p.Beta
	c.k = nil
	if p.K != nil {
		k := *p.K
		c.k = &k
	}
	c.aug, c.state = aug, state
	return nil
}

func (c *Config) setAdaptive(alphaQ, mu float64, minS mat.Matrix) error {
	if alphaQ < 0 || alphaQ > 1 || math.IsNaN(alphaQ) {
		return fmt.Errorf("%w: alpha_q must be in [0, 1], got %g", ErrInvalidConfig, alphaQ)
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return fmt.Errorf("%w: mu must be finite", ErrInvalidConfig)
	}
	floor := mat.NewDense(c.nState, c.nState, nil)
	if !isNil(minS) {
		r, cc := minS.Dims()
		if r != c.nState || cc != c.nState {
			return fmt.Errorf("%w: minS: %w", ErrInvalidConfig, dimErr("minS", r, cc, c.nState, c.nState))
		}
		floor.Copy(minS)
	}
	c.alphaQ = alphaQ
	c.lambdaS = alphaQ
	c.mu = mu
	c.a = (1 - c.lambdaS) * mu
	c.minS = floor
	return nil
}

func (c *Config) clone() *Config {
	cp := *c
	if c.k != nil {
		k := *c.k
		cp.k = &k
	}
	cp.minS = mat.DenseCopyOf(c.minS)
	return &cp
}

// NState is the number of hidden state variables.
func (c *Config) NState() int { return c.nState }

// NOutputs is the number of measured outputs.
func (c *Config) NOutputs() int { return c.nOutputs }

// NAug is the augmented sigma-point dimension 2*NState + NOutputs.
func (c *Config) NAug() int { return 2*c.nState + c.nOutputs }

// NPoints is the number of augmented sigma points 2*NAug + 1.
func (c *Config) NPoints() int { return 2*c.NAug() + 1 }

// Alpha is the sigma-point spread.
func (c *Config) Alpha() float64 { return c.alpha }

// Beta is the prior-distribution weight on the central covariance term.
func (c *Config) Beta() float64 { return c.beta }

// K returns the augmented k, either the override or 3 - NAug.
func (c *Config) K() float64 {
	if c.k != nil {
		return *c.k
	}
	return float64(3 - c.NAug())
}

// Lambda is alpha²(NAug + k) - NAug for the augmented spread.
func (c *Config) Lambda() float64 { return c.aug.lambda }

// SqrtC is the augmented sigma-point scale sqrt(NAug + Lambda).
func (c *Config) SqrtC() float64 { return c.aug.sqrtC }

// AlphaQ is the forgetting factor of the adaptive process noise.
func (c *Config) AlphaQ() float64 { return c.alphaQ }

// LambdaS equals AlphaQ; it scales the previous S in the adaptive update.
func (c *Config) LambdaS() float64 { return c.lambdaS }

// Mu is the adaptation gain on the innovation-driven term.
func (c *Config) Mu() float64 { return c.mu }

// A is (1 - LambdaS) * Mu, the weight of the innovation-driven term.
func (c *Config) A() float64 { return c.a }

// MinS returns a copy of the process square-root covariance floor.
func (c *Config) MinS() *mat.Dense { return mat.DenseCopyOf(c.minS) }

// Weights returns a copy of the augmented sigma-point weights.
func (c *Config) Weights() Weights { return c.aug.w.clone() }

// StateWeights returns a copy of the state-only weights used by Smooth.
func (c *Config) StateWeights() Weights { return c.state.w.clone() }
