package main

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/srukf/internal/config"
	"github.com/banshee-data/srukf/internal/ukf"
)

// configFromTuning builds a filter configuration from a loaded tuning file.
func configFromTuning(t *config.TuningConfig) (*ukf.Config, error) {
	if t == nil {
		t = config.EmptyTuningConfig()
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ukf.ErrInvalidConfig, err)
	}
	c, err := ukf.NewConfig(t.GetNState(), t.GetNOutputs())
	if err != nil {
		return nil, err
	}
	c, err = c.WithSpread(ukf.SpreadParams{Alpha: t.GetAlpha(), Beta: t.GetBeta(), K: t.K})
	if err != nil {
		return nil, err
	}
	return c.WithAdaptive(t.GetAlphaQ(), t.GetMu(), ukf.Diag(t.GetMinSDiag()))
}

// initialFromTuning returns the prior described by t: mean, diagonal square
// root, the process square root as Sq and a zero inflation scalar.
func initialFromTuning(t *config.TuningConfig) ukf.Initial {
	n := t.GetNState()
	s := mat.NewTriDense(n, mat.Lower, nil)
	for i, v := range t.GetInitialSqrtCovDiag() {
		s.SetTri(i, i, v)
	}
	return ukf.Initial{
		State: ukf.State{
			X:  mat.NewVecDense(n, t.GetInitialState()),
			S:  s,
			Sq: ukf.Diag(t.GetProcessSqrtCovDiag()),
		},
		Time: t.GetInitialTime(),
	}
}

// outputSqrtCovFromTuning returns diag(output_sqrt_cov_diag). Without outputs
// the result is a nil interface, not a nil *mat.Dense.
func outputSqrtCovFromTuning(t *config.TuningConfig) mat.Matrix {
	if t.GetNOutputs() == 0 {
		return nil
	}
	return ukf.Diag(t.GetOutputSqrtCovDiag())
}
