package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrSkip is returned by ParseLine for comments and blank lines.
var ErrSkip = errors.New("no sample on line")

// Sample is one parsed record.
type Sample struct {
	Time        float64
	Input       []float64
	Measurement []float64
}

// InputVec returns the input as a vector, or nil when there are no inputs.
func (s Sample) InputVec() mat.Vector {
	if len(s.Input) == 0 {
		return nil
	}
	return mat.NewVecDense(len(s.Input), s.Input)
}

// MeasurementVec returns the measurement as a vector, or nil when the model
// has no outputs.
func (s Sample) MeasurementVec() mat.Vector {
	if len(s.Measurement) == 0 {
		return nil
	}
	return mat.NewVecDense(len(s.Measurement), s.Measurement)
}

// ParseLine parses one "t,u…,z…" record.
func ParseLine(line string, nInputs, nOutputs int) (Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Sample{}, ErrSkip
	}
	return parseFields(strings.Split(line, ","), nInputs, nOutputs)
}

func parseFields(fields []string, nInputs, nOutputs int) (Sample, error) {
	want := 1 + nInputs + nOutputs
	if len(fields) != want {
		return Sample{}, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = v
	}

	s := Sample{Time: values[0]}
	if nInputs > 0 {
		s.Input = values[1 : 1+nInputs]
	}
	if nOutputs > 0 {
		s.Measurement = values[1+nInputs:]
	}
	return s, nil
}
