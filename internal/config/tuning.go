package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the on-disk description of one filter run: dimensions,
// unscented spread, adaptive process-noise parameters, noise square roots,
// the initial prior and the model to estimate.
type TuningConfig struct {
	// Dimensions
	NState   *int `json:"n_state,omitempty"`
	NOutputs *int `json:"n_outputs,omitempty"`
	NInputs  *int `json:"n_inputs,omitempty"`

	// Unscented spread. K is optional; absent means 3 - n_aug.
	Alpha *float64 `json:"alpha,omitempty"`
	Beta  *float64 `json:"beta,omitempty"`
	K     *float64 `json:"k,omitempty"`

	// Adaptive process noise
	Adaptive *bool     `json:"adaptive,omitempty"`
	AlphaQ   *float64  `json:"alpha_q,omitempty"`
	Mu       *float64  `json:"mu,omitempty"`
	MinSDiag []float64 `json:"min_s_diag,omitempty"`

	// Square-root noise covariances (diagonals) and the prior
	ProcessSqrtCovDiag []float64 `json:"process_sqrt_cov_diag,omitempty"`
	OutputSqrtCovDiag  []float64 `json:"output_sqrt_cov_diag,omitempty"`
	InitialState       []float64 `json:"initial_state,omitempty"`
	InitialSqrtCovDiag []float64 `json:"initial_sqrt_cov_diag,omitempty"`
	InitialTime        *float64  `json:"initial_time,omitempty"`

	// Smoothing
	Smooth *bool `json:"smooth,omitempty"`

	// Model selection, see internal/models.
	Model       *string            `json:"model,omitempty"`
	ModelParams map[string]float64 `json:"model_params,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns the built-in defaults: a 1-state, 1-output
// random walk observed directly.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		NState:             ptrInt(1),
		NOutputs:           ptrInt(1),
		NInputs:            ptrInt(0),
		Alpha:              ptrFloat64(1.0 / math.Sqrt(3.0)),
		Beta:               ptrFloat64(2.0),
		Adaptive:           ptrBool(false),
		AlphaQ:             ptrFloat64(0.995),
		Mu:                 ptrFloat64(1.0 / math.Sqrt(3.0)),
		MinSDiag:           []float64{0.1},
		ProcessSqrtCovDiag: []float64{0.1},
		OutputSqrtCovDiag:  []float64{0.1},
		InitialState:       []float64{0},
		InitialSqrtCovDiag: []float64{1},
		InitialTime:        ptrFloat64(0),
		Smooth:             ptrBool(true),
		Model:              ptrString("linear"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB. Fields omitted from
// the file fall back to the Get* defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set. Cross-field dimension checks use
// the Get* values so partial configs validate against the defaults.
func (c *TuningConfig) Validate() error {
	if c.NState != nil && *c.NState < 1 {
		return fmt.Errorf("n_state must be >= 1, got %d", *c.NState)
	}
	if c.NOutputs != nil && *c.NOutputs < 0 {
		return fmt.Errorf("n_outputs must be >= 0, got %d", *c.NOutputs)
	}
	if c.NInputs != nil && *c.NInputs < 0 {
		return fmt.Errorf("n_inputs must be >= 0, got %d", *c.NInputs)
	}
	if c.Alpha != nil && *c.Alpha <= 0 {
		return fmt.Errorf("alpha must be positive, got %f", *c.Alpha)
	}
	if c.AlphaQ != nil && (*c.AlphaQ < 0 || *c.AlphaQ > 1) {
		return fmt.Errorf("alpha_q must be between 0 and 1, got %f", *c.AlphaQ)
	}

	n, m := c.GetNState(), c.GetNOutputs()
	checks := []struct {
		name string
		v    []float64
		want int
	}{
		{"min_s_diag", c.MinSDiag, n},
		{"process_sqrt_cov_diag", c.ProcessSqrtCovDiag, n},
		{"output_sqrt_cov_diag", c.OutputSqrtCovDiag, m},
		{"initial_state", c.InitialState, n},
		{"initial_sqrt_cov_diag", c.InitialSqrtCovDiag, n},
	}
	for _, chk := range checks {
		if chk.v != nil && len(chk.v) != chk.want {
			return fmt.Errorf("%s has %d entries, want %d", chk.name, len(chk.v), chk.want)
		}
	}

	return nil
}

// GetNState returns the n_state value or the default.
func (c *TuningConfig) GetNState() int {
	if c.NState == nil {
		return 1
	}
	return *c.NState
}

// GetNOutputs returns the n_outputs value or the default.
func (c *TuningConfig) GetNOutputs() int {
	if c.NOutputs == nil {
		return 1
	}
	return *c.NOutputs
}

// GetNInputs returns the n_inputs value or the default.
func (c *TuningConfig) GetNInputs() int {
	if c.NInputs == nil {
		return 0
	}
	return *c.NInputs
}

// GetAlpha returns the alpha value or the default 1/sqrt(3).
func (c *TuningConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return 1.0 / math.Sqrt(3.0)
	}
	return *c.Alpha
}

// GetBeta returns the beta value or the default.
func (c *TuningConfig) GetBeta() float64 {
	if c.Beta == nil {
		return 2.0
	}
	return *c.Beta
}

// GetAdaptive returns the adaptive value or the default.
func (c *TuningConfig) GetAdaptive() bool {
	if c.Adaptive == nil {
		return false
	}
	return *c.Adaptive
}

// GetAlphaQ returns the alpha_q value or the default.
func (c *TuningConfig) GetAlphaQ() float64 {
	if c.AlphaQ == nil {
		return 0.995
	}
	return *c.AlphaQ
}

// GetMu returns the mu value or the default 1/sqrt(3).
func (c *TuningConfig) GetMu() float64 {
	if c.Mu == nil {
		return 1.0 / math.Sqrt(3.0)
	}
	return *c.Mu
}

// GetMinSDiag returns min_s_diag or 0.1 on every state.
func (c *TuningConfig) GetMinSDiag() []float64 {
	return diagOr(c.MinSDiag, c.GetNState(), 0.1)
}

// GetProcessSqrtCovDiag returns process_sqrt_cov_diag or 0.1 on every state.
func (c *TuningConfig) GetProcessSqrtCovDiag() []float64 {
	return diagOr(c.ProcessSqrtCovDiag, c.GetNState(), 0.1)
}

// GetOutputSqrtCovDiag returns output_sqrt_cov_diag or 0.1 on every output.
func (c *TuningConfig) GetOutputSqrtCovDiag() []float64 {
	return diagOr(c.OutputSqrtCovDiag, c.GetNOutputs(), 0.1)
}

// GetInitialState returns initial_state or zeros.
func (c *TuningConfig) GetInitialState() []float64 {
	return diagOr(c.InitialState, c.GetNState(), 0)
}

// GetInitialSqrtCovDiag returns initial_sqrt_cov_diag or ones.
func (c *TuningConfig) GetInitialSqrtCovDiag() []float64 {
	return diagOr(c.InitialSqrtCovDiag, c.GetNState(), 1)
}

// GetInitialTime returns initial_time or the default 0.
func (c *TuningConfig) GetInitialTime() float64 {
	if c.InitialTime == nil {
		return 0
	}
	return *c.InitialTime
}

// GetSmooth returns the smooth value or the default.
func (c *TuningConfig) GetSmooth() bool {
	if c.Smooth == nil {
		return true
	}
	return *c.Smooth
}

// GetModel returns the model name or the default.
func (c *TuningConfig) GetModel() string {
	if c.Model == nil || *c.Model == "" {
		return "linear"
	}
	return *c.Model
}

// GetModelParam returns the named model parameter or def.
func (c *TuningConfig) GetModelParam(name string, def float64) float64 {
	if v, ok := c.ModelParams[name]; ok {
		return v
	}
	return def
}

func diagOr(v []float64, n int, def float64) []float64 {
	if v != nil {
		return append([]float64(nil), v...)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = def
	}
	return out
}
