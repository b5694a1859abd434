// Package report renders filtered and smoothed trajectories as PNG plots
// (gonum/plot) and as an interactive echarts page.
package report

import (
	"errors"
	"fmt"

	"github.com/banshee-data/srukf/internal/ukf"
)

// Bands is the number of standard deviations drawn around each mean.
const Bands = 2.0

// Input is what gets plotted. Smoothed may be nil.
type Input struct {
	Title    string
	Filtered *ukf.Trajectory
	Smoothed *ukf.Smoothed
	// StateNames label the state components; defaults are x0, x1, ...
	StateNames []string
}

func (in Input) validate() error {
	if in.Filtered == nil || in.Filtered.Len() == 0 {
		return errors.New("report: empty filtered trajectory")
	}
	if in.Smoothed != nil && in.Smoothed.Len() != in.Filtered.Len() {
		return fmt.Errorf("report: smoothed has %d states, filtered has %d", in.Smoothed.Len(), in.Filtered.Len())
	}
	return nil
}

func (in Input) nState() int { return in.Filtered.States[0].X.Len() }

func (in Input) stateName(i int) string {
	if i < len(in.StateNames) && in.StateNames[i] != "" {
		return in.StateNames[i]
	}
	return fmt.Sprintf("x%d", i)
}

// band is one state component over time: mean and the ±Bands envelope.
type band struct {
	t, mean, lo, hi []float64
}

func (in Input) filteredBand(k int) band {
	n := in.Filtered.Len()
	b := newBand(n)
	for i := 0; i < n; i++ {
		b.set(i, in.Filtered.Times[i], in.Filtered.States[i].X.AtVec(k), in.Filtered.StdDev(i)[k])
	}
	return b
}

func (in Input) smoothedBand(k int) band {
	n := in.Smoothed.Len()
	b := newBand(n)
	for i := 0; i < n; i++ {
		b.set(i, in.Smoothed.Times[i], in.Smoothed.X[i].AtVec(k), in.Smoothed.StdDev(i)[k])
	}
	return b
}

func newBand(n int) band {
	return band{t: make([]float64, n), mean: make([]float64, n), lo: make([]float64, n), hi: make([]float64, n)}
}

func (b band) set(i int, t, mean, sd float64) {
	b.t[i], b.mean[i] = t, mean
	b.lo[i], b.hi[i] = mean-Bands*sd, mean+Bands*sd
}
