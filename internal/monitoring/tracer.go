package monitoring

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatrixTracer writes filter intermediates at DEBUG. It satisfies ukf.TraceSink.
type MatrixTracer struct {
	// Prefix is prepended to each label, e.g. "step 3".
	Prefix string
	// Logf defaults to Debugf.
	Logf func(format string, v ...interface{})
}

// Trace logs label followed by the formatted matrix.
func (t MatrixTracer) Trace(label string, m mat.Matrix) {
	logf := t.Logf
	if logf == nil {
		logf = Debugf
	}
	if t.Prefix != "" {
		label = t.Prefix + ": " + label
	}
	logf("%s:\n%v", label, mat.Formatted(m, mat.Prefix(""), mat.Squeeze()))
}

// WithPrefix returns a copy of t labelled with a formatted prefix.
func (t MatrixTracer) WithPrefix(format string, v ...interface{}) MatrixTracer {
	t.Prefix = fmt.Sprintf(format, v...)
	return t
}
