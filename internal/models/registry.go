package models

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/srukf/internal/config"
	"github.com/banshee-data/srukf/internal/ukf"
)

// Spec selects a model and its dimensions. Params are model specific;
// missing entries take the model default.
type Spec struct {
	Name     string
	NState   int
	NOutputs int
	NInputs  int
	Params   map[string]float64
}

// SpecFromTuning reads the model section of a tuning file.
func SpecFromTuning(t *config.TuningConfig) Spec {
	return Spec{
		Name:     t.GetModel(),
		NState:   t.GetNState(),
		NOutputs: t.GetNOutputs(),
		NInputs:  t.GetNInputs(),
		Params:   t.ModelParams,
	}
}

func (s Spec) param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

type constructor func(Spec) (ukf.Model, error)

var registry = map[string]constructor{
	"linear":   newLinearFromSpec,
	"pendulum": newPendulumFromSpec,
	"lag":      newLagFromSpec,
}

// Names lists the registered model names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the named model.
func New(s Spec) (ukf.Model, error) {
	ctor, ok := registry[s.Name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (known: %v)", s.Name, Names())
	}
	m, err := ctor(s)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", s.Name, err)
	}
	return m, nil
}

// newLinearFromSpec builds x' = a·x + b·u₀, y = first NOutputs states.
// Params: "a" (default 1), "b" (default 0, needs NInputs >= 1).
func newLinearFromSpec(s Spec) (ukf.Model, error) {
	if s.NState < 1 {
		return nil, fmt.Errorf("n_state must be >= 1")
	}
	if s.NOutputs > s.NState {
		return nil, fmt.Errorf("n_outputs %d exceeds n_state %d", s.NOutputs, s.NState)
	}
	a := mat.NewDense(s.NState, s.NState, nil)
	for i := 0; i < s.NState; i++ {
		a.Set(i, i, s.param("a", 1))
	}
	var b *mat.Dense
	if s.NInputs > 0 {
		b = mat.NewDense(s.NState, s.NInputs, nil)
		for i := 0; i < s.NState; i++ {
			b.Set(i, 0, s.param("b", 0))
		}
	}
	var c *mat.Dense
	if s.NOutputs > 0 {
		c = mat.NewDense(s.NOutputs, s.NState, nil)
		for i := 0; i < s.NOutputs; i++ {
			c.Set(i, i, 1)
		}
	}
	return NewLinear(a, b, c, nil)
}

func newPendulumFromSpec(s Spec) (ukf.Model, error) {
	if s.NState != 2 || s.NOutputs != 1 {
		return nil, fmt.Errorf("needs n_state=2 and n_outputs=1, got %d and %d", s.NState, s.NOutputs)
	}
	p := DefaultPendulum()
	p.G = s.param("g", p.G)
	p.Length = s.param("length", p.Length)
	p.Damping = s.param("damping", p.Damping)
	p.MaxStep = s.param("max_step", p.MaxStep)
	if p.Length <= 0 {
		return nil, fmt.Errorf("length must be positive, got %g", p.Length)
	}
	return p, nil
}

func newLagFromSpec(s Spec) (ukf.Model, error) {
	if s.NState != 1 || s.NOutputs != 1 {
		return nil, fmt.Errorf("needs n_state=1 and n_outputs=1, got %d and %d", s.NState, s.NOutputs)
	}
	l := &FirstOrderLag{Gain: s.param("gain", 1), Tau: s.param("tau", 1)}
	if l.Tau <= 0 {
		return nil, fmt.Errorf("tau must be positive, got %g", l.Tau)
	}
	return l, nil
}
