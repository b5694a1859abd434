package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PropagateState passes every sigma point through the model transition.
//
// Each row of points is [state | process noise | output noise]. The model sees
// only the state segment; the process-noise segment, when present, is added to
// the result. Rows of width NState carry no noise segment (smoother points).
func (c *Config) PropagateState(m Model, points *mat.Dense, uPrev, uNow mat.Vector, tPrev, tNow float64) (*mat.Dense, error) {
	n := c.nState
	rows, cols := points.Dims()
	if cols != n && cols != c.NAug() {
		return nil, dimErr("sigma points", rows, cols, rows, c.NAug())
	}
	withNoise := cols == c.NAug()

	out := mat.NewDense(rows, n, nil)
	for i := 0; i < rows; i++ {
		row := points.RawRowView(i)
		x := mat.NewVecDense(n, append([]float64(nil), row[:n]...))
		next, err := m.Transition(x, uPrev, uNow, tPrev, tNow, false)
		if err != nil {
			return nil, fmt.Errorf("%w: transition of sigma point %d: %w", ErrModel, i, err)
		}
		if next == nil || next.Len() != n {
			return nil, fmt.Errorf("transition of sigma point %d: %w", i, dimErr("state", vecLen(next), 1, n, 1))
		}
		for j := 0; j < n; j++ {
			v := next.AtVec(j)
			if withNoise {
				v += row[n+j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// PropagateOutput passes every sigma point through the model output function
// and adds the output-noise segment of augmented points.
func (c *Config) PropagateOutput(m Model, points *mat.Dense, u mat.Vector, t float64) (*mat.Dense, error) {
	n, p := c.nState, c.nOutputs
	rows, cols := points.Dims()
	if p == 0 {
		return nil, fmt.Errorf("%w: output propagation with n_outputs = 0", ErrDimension)
	}
	if cols != n && cols != c.NAug() {
		return nil, dimErr("sigma points", rows, cols, rows, c.NAug())
	}
	withNoise := cols == c.NAug()

	out := mat.NewDense(rows, p, nil)
	for i := 0; i < rows; i++ {
		row := points.RawRowView(i)
		x := mat.NewVecDense(n, append([]float64(nil), row[:n]...))
		y, err := m.Output(x, u, t, false)
		if err != nil {
			return nil, fmt.Errorf("%w: output of sigma point %d: %w", ErrModel, i, err)
		}
		if y == nil || y.Len() != p {
			return nil, fmt.Errorf("output of sigma point %d: %w", i, dimErr("output", vecLen(y), 1, p, 1))
		}
		for j := 0; j < p; j++ {
			v := y.AtVec(j)
			if withNoise {
				v += row[2*n+j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Mean is the W_m-weighted mean of a sigma-point cloud (one point per row).
func (c *Config) Mean(points *mat.Dense) (*mat.VecDense, error) {
	rows, _ := points.Dims()
	s, err := c.spreadForPoints(rows)
	if err != nil {
		return nil, err
	}
	return weightedMean(points, s.w.Mean), nil
}

func weightedMean(points *mat.Dense, w []float64) *mat.VecDense {
	_, cols := points.Dims()
	mean := mat.NewVecDense(cols, nil)
	mean.MulVec(points.T(), mat.NewVecDense(len(w), w))
	return mean
}

func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}
