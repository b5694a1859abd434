package ukf

import "gonum.org/v1/gonum/mat"

// TraceSink receives intermediate matrices of a step or smoothing pass.
type TraceSink interface {
	Trace(label string, m mat.Matrix)
}

// TraceFunc adapts a function to TraceSink.
type TraceFunc func(label string, m mat.Matrix)

func (f TraceFunc) Trace(label string, m mat.Matrix) { f(label, m) }

func trace(sink TraceSink, label string, m mat.Matrix) {
	if sink == nil || m == nil {
		return
	}
	sink.Trace(label, m)
}
