package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is the discrete linear system
//
//	x' = A·x + B·uPrev
//	y  = C·x + D·u
//
// B and D may be nil for systems without inputs; C is nil when nothing is
// measured.
type Linear struct {
	A, B, C, D *mat.Dense
}

var errNoOutputs = errors.New("linear system has no outputs")

// NewLinear checks the shapes of the system matrices.
func NewLinear(a, b, c, d *mat.Dense) (*Linear, error) {
	n, nc := a.Dims()
	if n != nc {
		return nil, fmt.Errorf("A must be square, got %dx%d", n, nc)
	}
	p := 0
	if c != nil {
		var cc int
		p, cc = c.Dims()
		if cc != n {
			return nil, fmt.Errorf("C is %dx%d, want %dx%d", p, cc, p, n)
		}
	}
	if b != nil {
		if br, _ := b.Dims(); br != n {
			return nil, fmt.Errorf("B has %d rows, want %d", br, n)
		}
	}
	if d != nil {
		if dr, _ := d.Dims(); dr != p {
			return nil, fmt.Errorf("D has %d rows, want %d", dr, p)
		}
	}
	return &Linear{A: a, B: b, C: c, D: d}, nil
}

func (l *Linear) Transition(x, uPrev, _ mat.Vector, _, _ float64, _ bool) (*mat.VecDense, error) {
	n, _ := l.A.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(l.A, x)
	if err := addInput(out, l.B, uPrev); err != nil {
		return nil, fmt.Errorf("linear transition: %w", err)
	}
	return out, nil
}

func (l *Linear) Output(x, u mat.Vector, _ float64, _ bool) (*mat.VecDense, error) {
	if l.C == nil {
		return nil, errNoOutputs
	}
	p, _ := l.C.Dims()
	out := mat.NewVecDense(p, nil)
	out.MulVec(l.C, x)
	if err := addInput(out, l.D, u); err != nil {
		return nil, fmt.Errorf("linear output: %w", err)
	}
	return out, nil
}

// addInput adds m·u to dst. A nil matrix or input contributes nothing.
func addInput(dst *mat.VecDense, m *mat.Dense, u mat.Vector) error {
	if m == nil || u == nil {
		return nil
	}
	_, mc := m.Dims()
	if u.Len() != mc {
		return fmt.Errorf("input has %d entries, want %d", u.Len(), mc)
	}
	var mu mat.VecDense
	mu.MulVec(m, u)
	dst.AddVec(dst, &mu)
	return nil
}
